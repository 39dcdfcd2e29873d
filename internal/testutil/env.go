// Package testutil provides utilities for testing relget in isolation.
package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated directories created by SetupTestEnv
type Env struct {
	ConfigHome string // stands in for $XDG_CONFIG_HOME
	Dest       string // destination directory for downloads
}

// SetupTestEnv points every location relget reads from the environment at
// temporary directories, so tests never pick up the user's config file or
// debug setting. The directories are removed by t.TempDir.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		ConfigHome: filepath.Join(tmpDir, "config"),
		Dest:       filepath.Join(tmpDir, "downloads"),
	}

	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("RELGET_CONFIG", "")
	t.Setenv("RELGET_DEBUG", "")

	if err := os.MkdirAll(env.ConfigHome, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", env.ConfigHome, err)
	}
	return env
}

// File is one archive entry
type File struct {
	Name    string
	Content string
	Mode    os.FileMode
}

// ZipBytes builds an in-memory zip archive
func ZipBytes(t *testing.T, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		header := &zip.FileHeader{Name: f.Name, Method: zip.Deflate}
		header.SetMode(f.Mode)
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to add %s: %v", f.Name, err)
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			t.Fatalf("failed to write %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	return buf.Bytes()
}
