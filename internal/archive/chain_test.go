package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records commands and pretends only some programs are installed
type fakeRunner struct {
	installed map[string]bool
	runErr    error
	calls     [][]string
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if r.installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.runErr
}

func chainNames(chain []Backend) []string {
	names := make([]string, 0, len(chain))
	for _, b := range chain {
		names = append(names, b.Name())
	}
	return names
}

func TestDefaultChain(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{"windows", []string{"powershell", "7z", "tar", "builtin"}},
		{"darwin", []string{"ditto", "unzip", "7z", "tar", "builtin"}},
		{"linux", []string{"unzip", "7z", "bsdtar", "tar", "builtin"}},
		{"freebsd", []string{"unzip", "7z", "bsdtar", "tar", "builtin"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, chainNames(DefaultChain(tt.goos, &fakeRunner{})))
		})
	}
}

func TestCommandBackendSupports(t *testing.T) {
	r := &fakeRunner{installed: map[string]bool{"unzip": true, "tar": true}}

	assert.True(t, NewUnzipBackend(r).Supports(FormatZip))
	assert.False(t, NewUnzipBackend(r).Supports(FormatTarGz), "unzip cannot read tarballs")
	assert.False(t, NewSevenZipBackend(r).Supports(FormatZip), "7z is not installed")

	gnuTar := NewTarBackend(r, "tar", false)
	assert.True(t, gnuTar.Supports(FormatTarGz))
	assert.False(t, gnuTar.Supports(FormatZip))
	assert.True(t, NewTarBackend(r, "tar", true).Supports(FormatZip))
}

func TestCommandBackendArguments(t *testing.T) {
	tests := []struct {
		name    string
		backend func(Runner) *CommandBackend
		want    []string
	}{
		{"unzip", NewUnzipBackend, []string{"unzip", "-o", "-q", "/tmp/a.zip", "-d", "/dst"}},
		{"ditto", NewDittoBackend, []string{"ditto", "-x", "-k", "/tmp/a.zip", "/dst"}},
		{"7z", NewSevenZipBackend, []string{"7z", "x", "-y", "-o/dst", "/tmp/a.zip"}},
		{"bsdtar", func(r Runner) *CommandBackend { return NewTarBackend(r, "bsdtar", true) },
			[]string{"bsdtar", "-x", "-f", "/tmp/a.zip", "-C", "/dst"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{}
			require.NoError(t, tt.backend(r).Expand(context.Background(), "/tmp/a.zip", "/dst"))
			require.Len(t, r.calls, 1)
			assert.Equal(t, tt.want, r.calls[0])
		})
	}
}

func TestPowerShellBackendQuotesPaths(t *testing.T) {
	r := &fakeRunner{}
	require.NoError(t, NewPowerShellBackend(r).Expand(context.Background(), `C:\Users\o'neil\a.zip`, `C:\dst`))
	require.Len(t, r.calls, 1)

	call := r.calls[0]
	assert.Equal(t, "powershell", call[0])
	assert.Equal(t, "-Command", call[3])
	assert.Equal(t, `Expand-Archive -LiteralPath 'C:\Users\o''neil\a.zip' -DestinationPath 'C:\dst' -Force`, call[4])
}

func TestCommandBackendPropagatesFailure(t *testing.T) {
	r := &fakeRunner{runErr: errors.New("exit status 2")}
	err := NewUnzipBackend(r).Expand(context.Background(), "a.zip", "dst")
	assert.EqualError(t, err, "exit status 2")
}
