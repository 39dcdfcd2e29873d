package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Builtin expands zip and tar archives with the Go standard library.
// It has no external requirements and always ends the backend chain.
type Builtin struct{}

// NewBuiltin creates the built-in backend
func NewBuiltin() *Builtin {
	return &Builtin{}
}

// Name identifies the backend in logs and errors
func (*Builtin) Name() string {
	return "builtin"
}

// Supports reports whether the format can be parsed in-process
func (*Builtin) Supports(format Format) bool {
	return format != FormatUnknown
}

// Expand unpacks the archive into dir. Symlinks and special files are skipped.
func (b *Builtin) Expand(ctx context.Context, archivePath, dir string) error {
	switch DetectFormat(archivePath) {
	case FormatZip:
		return b.expandZip(ctx, archivePath, dir)
	case FormatTar:
		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer f.Close()
		return b.expandTar(ctx, f, dir)
	case FormatTarGz:
		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer f.Close()

		gzipReader, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		return b.expandTar(ctx, gzipReader, dir)
	default:
		return fmt.Errorf("unrecognized archive format: %s", filepath.Base(archivePath))
	}
}

func (b *Builtin) expandZip(ctx context.Context, archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(dir, entry.Name)
		if err != nil {
			return err
		}

		mode := entry.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case mode.IsRegular():
			rc, err := entry.Open()
			if err != nil {
				return fmt.Errorf("open entry %s: %w", entry.Name, err)
			}
			err = writeFile(target, rc, mode.Perm())
			rc.Close()
			if err != nil {
				return err
			}
		default:
			continue
		}
	}
	return nil
}

func (b *Builtin) expandTar(ctx context.Context, r io.Reader, dir string) error {
	tarReader := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeJoin(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tarReader, fs.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		default:
			// Symlinks, hard links and devices never qualify for placement
			continue
		}
	}
}

// safeJoin resolves an entry name below dir, rejecting entries that escape it
func safeJoin(dir, name string) (string, error) {
	root := filepath.Clean(dir)
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	//nolint:gosec // G304: target was checked by safeJoin
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", target, err)
	}
	// OpenFile applies the umask; restore the archived bits
	if err := os.Chmod(target, perm); err != nil {
		return fmt.Errorf("set mode on %s: %w", target, err)
	}
	return nil
}
