package archive

import (
	"strings"
)

// NewPowerShellBackend uses Windows' built-in Expand-Archive cmdlet
func NewPowerShellBackend(r Runner) *CommandBackend {
	return &CommandBackend{
		name:    "powershell",
		program: "powershell",
		formats: []Format{FormatZip},
		args: func(archivePath, dir string) []string {
			script := "Expand-Archive -LiteralPath " + psQuote(archivePath) +
				" -DestinationPath " + psQuote(dir) + " -Force"
			return []string{"-NoProfile", "-NonInteractive", "-Command", script}
		},
		runner: r,
	}
}

// NewDittoBackend uses macOS's ditto
func NewDittoBackend(r Runner) *CommandBackend {
	return &CommandBackend{
		name:    "ditto",
		program: "ditto",
		formats: []Format{FormatZip},
		args: func(archivePath, dir string) []string {
			return []string{"-x", "-k", archivePath, dir}
		},
		runner: r,
	}
}

// NewUnzipBackend uses Info-ZIP unzip
func NewUnzipBackend(r Runner) *CommandBackend {
	return &CommandBackend{
		name:    "unzip",
		program: "unzip",
		formats: []Format{FormatZip},
		args: func(archivePath, dir string) []string {
			return []string{"-o", "-q", archivePath, "-d", dir}
		},
		runner: r,
	}
}

// NewSevenZipBackend uses 7-Zip. Gzipped tarballs are left to tar, since 7z
// only peels the gzip layer.
func NewSevenZipBackend(r Runner) *CommandBackend {
	return &CommandBackend{
		name:    "7z",
		program: "7z",
		formats: []Format{FormatZip, FormatTar},
		args: func(archivePath, dir string) []string {
			return []string{"x", "-y", "-o" + dir, archivePath}
		},
		runner: r,
	}
}

// NewTarBackend uses a tar program. bsdtar (the default tar on Windows and
// macOS) also reads zip files; GNU tar does not.
func NewTarBackend(r Runner, program string, readsZip bool) *CommandBackend {
	formats := []Format{FormatTar, FormatTarGz}
	if readsZip {
		formats = append(formats, FormatZip)
	}
	return &CommandBackend{
		name:    program,
		program: program,
		formats: formats,
		args: func(archivePath, dir string) []string {
			return []string{"-x", "-f", archivePath, "-C", dir}
		},
		runner: r,
	}
}

// DefaultChain returns the backend chain for a host OS, ending with the built-in parser
func DefaultChain(goos string, r Runner) []Backend {
	if r == nil {
		r = ExecRunner{}
	}

	switch goos {
	case "windows":
		return []Backend{
			NewPowerShellBackend(r),
			NewSevenZipBackend(r),
			NewTarBackend(r, "tar", true),
			NewBuiltin(),
		}
	case "darwin":
		return []Backend{
			NewDittoBackend(r),
			NewUnzipBackend(r),
			NewSevenZipBackend(r),
			NewTarBackend(r, "tar", true),
			NewBuiltin(),
		}
	default:
		return []Backend{
			NewUnzipBackend(r),
			NewSevenZipBackend(r),
			NewTarBackend(r, "bsdtar", true),
			NewTarBackend(r, "tar", false),
			NewBuiltin(),
		}
	}
}

// psQuote single-quotes a PowerShell string literal
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
