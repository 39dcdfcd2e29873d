// Package config loads relget defaults from an optional Lua file.
//
// The file runs in a sandboxed gopher-lua VM with no os, io or module
// loading, and with the read-only platform table from the platform package
// injected, so a single file can carry per-host choices:
//
//	relget = {
//	  product       = { "terraform", "vault" },
//	  version       = "latest",
//	  license_class = "oss",
//	  dest          = platform.is_windows and "C:\\tools" or "./bin",
//	  extract       = true,
//	  arch          = platform.when(platform.is_windows, "386"),
//	}
//
// Every key is optional. Unknown keys and values of the wrong type are
// reported as a *ParseError rather than ignored. Values loaded here only
// replace built-in defaults; command-line flags given explicitly win.
//
// # Lookup
//
// Load reads the first of: the explicit path, $RELGET_CONFIG, and
// config.lua under $XDG_CONFIG_HOME/relget (or ~/.config/relget). The
// explicit and environment paths must exist; the per-user file is optional.
//
// # Limits
//
// Files larger than 1MB are rejected, the call stack is capped at 256
// frames, and execution is bound to the caller's context with a 5 second
// default deadline.
package config
