// Package placement moves extracted files into a flat destination directory
// without silently replacing files that are already there.
//
// Every decision is made from a fresh existence check right before acting,
// which is the only coordination used for the shared destination directory.
package placement

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// maxSuffix bounds the search for a free "name-N.ext" candidate
const maxSuffix = 10000

// rename is swapped in tests to simulate cross-device moves
var rename = os.Rename

// Policy governs what happens when the destination name is taken
type Policy struct {
	Force bool // replace the existing file instead of picking a new name
}

// Qualifier decides whether a file found while draining should be placed
type Qualifier func(path string, info fs.FileInfo) bool

// ExecutableQualifier returns the qualification test for files targeting goos.
// Windows targets match a case-insensitive ".exe" suffix. Other targets have
// no conventional suffix, so they match regular files with an execute bit.
func ExecutableQualifier(goos string) Qualifier {
	if goos == "windows" {
		return func(path string, info fs.FileInfo) bool {
			return info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(path), ".exe")
		}
	}
	return func(path string, info fs.FileInfo) bool {
		return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
	}
}

// Place moves src into destDir and returns the final path
func Place(src, destDir string, p Policy) (string, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("place %s: not a regular file", src)
	}

	target := filepath.Join(destDir, filepath.Base(src))

	if exists(target) {
		if p.Force {
			if err := os.Remove(target); err != nil {
				return "", fmt.Errorf("remove existing file: %w", err)
			}
		} else {
			target, err = freeName(target)
			if err != nil {
				return "", err
			}
		}
	}

	if err := move(src, target, info.Mode().Perm()); err != nil {
		return "", err
	}
	return target, nil
}

// SuffixedName inserts "-n" before the extension: app.exe -> app-1.exe, app -> app-1
func SuffixedName(path string, n int) string {
	ext := filepath.Ext(path)
	// A leading-dot name like ".env" has no extension to preserve
	if ext == filepath.Base(path) {
		ext = ""
	}
	return strings.TrimSuffix(path, ext) + "-" + strconv.Itoa(n) + ext
}

// freeName returns the first "name-N.ext" next to target that does not exist
func freeName(target string) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		candidate := SuffixedName(target, n)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", target, maxSuffix)
}

// move renames src to dst, falling back to copy and delete when a rename is
// not possible, e.g. across filesystems
func move(src, dst string, perm fs.FileMode) error {
	renameErr := rename(src, dst)
	if renameErr == nil {
		return nil
	}

	if err := copyFile(src, dst, perm); err != nil {
		return fmt.Errorf("move %s (rename failed: %v): %w", src, renameErr, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// copyFile writes src to a temp file in dst's directory and renames it into place
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
