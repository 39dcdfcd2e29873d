package config

import (
	lua "github.com/yuin/gopher-lua"
)

// callStackSize caps Lua recursion depth
const callStackSize = 256

// blockedGlobals are removed before any user code runs. They would let a
// config run commands, touch the filesystem or load more code.
var blockedGlobals = []string{
	"os",
	"io",
	"require",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"debug",
}

// sandboxLuaVM strips unsafe globals from L. string, table and math stay
// available, as do basics like type, tostring, pairs and ipairs.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a restricted Lua state for running config files
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{CallStackSize: callStackSize})
	sandboxLuaVM(L)
	return L
}
