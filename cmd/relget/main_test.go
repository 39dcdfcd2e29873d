package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/relget/internal/archive"
	"github.com/ZebulonRouseFrantzich/relget/internal/catalog"
	"github.com/ZebulonRouseFrantzich/relget/internal/platform"
	"github.com/ZebulonRouseFrantzich/relget/internal/testutil"
)

type fixedDetector struct {
	info platform.Info
}

func (d fixedDetector) Detect(context.Context) (*platform.Info, error) {
	info := d.info
	return &info, nil
}

// catalogServer serves a small catalog plus the archives it links to
type catalogServer struct {
	*httptest.Server
	hits int32
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()

	payload := testutil.ZipBytes(t,
		testutil.File{Name: "terraform", Content: "#!/bin/sh\necho terraform\n", Mode: 0755},
		testutil.File{Name: "LICENSE.txt", Content: "MPL-2.0", Mode: 0644},
	)

	cs := &catalogServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/products", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"terraform", "vault"})
	})
	mux.HandleFunc("/v1/releases/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/v1/releases/") != "terraform" {
			http.NotFound(w, r)
			return
		}
		build := func(goos, arch string) catalog.Build {
			return catalog.Build{OS: goos, Arch: arch, URL: cs.URL + "/files/terraform_1.9.3_" + goos + "_" + arch + ".zip"}
		}
		_ = json.NewEncoder(w).Encode([]catalog.Release{
			{
				Version:      "1.10.0-beta1",
				Status:       catalog.Status{State: "supported"},
				IsPrerelease: true,
				Builds:       []catalog.Build{build("linux", "amd64")},
			},
			{
				Version: "1.9.3",
				Status:  catalog.Status{State: "supported"},
				Builds:  []catalog.Build{build("darwin", "arm64"), build("linux", "amd64")},
			},
		})
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})

	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cs.hits, 1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

type run struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) run {
	t.Helper()

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:    strings.NewReader(stdin),
		stdout:   &stdout,
		stderr:   &stderr,
		detector: fixedDetector{info: platform.Info{OS: "linux", Arch: "amd64"}},
	}
	code := a.execute(context.Background(), args)
	return run{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "terraform", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)

	assert.Contains(t, r.stdout, "✓ terraform 1.9.3 linux/amd64")
	assert.Contains(t, r.stdout, "1 succeeded, 0 failed, 0 skipped")
	assert.Equal(t, []string{"terraform_1.9.3_linux_amd64.zip"}, dirNames(t, env.Dest))
}

func TestDownloadPrereleaseAndPlatform(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "-p", "terraform", "--prerelease", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "terraform 1.10.0-beta1")

	r = runCLI(t, "", "terraform", "-o", "darwin", "-a", "arm64", "--list", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "terraform_1.9.3_darwin_arm64.zip")
}

func TestDownloadAndExtract(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "terraform", "-x", "--yes", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)

	assert.Contains(t, r.stdout, "1 executable")
	assert.ElementsMatch(t, []string{"terraform", "terraform_1.9.3_linux_amd64.zip"}, dirNames(t, env.Dest))

	info, err := os.Stat(filepath.Join(env.Dest, "terraform"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0111)
	for _, name := range dirNames(t, env.Dest) {
		assert.False(t, archive.IsScratchDir(name))
	}
}

func TestListOnlyDownloadsNothing(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "terraform", "--list", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, srv.URL+"/files/terraform_1.9.3_linux_amd64.zip")
	assert.NoDirExists(t, env.Dest)
}

func TestOneFailedProductDoesNotStopOthers(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "nomad", "terraform", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "✗ nomad")
	assert.Contains(t, r.stdout, "product not found")
	assert.Contains(t, r.stdout, "✓ terraform")
	assert.Contains(t, r.stdout, "1 succeeded, 1 failed, 0 skipped")
	assert.NotContains(t, r.stderr, "Error:")
}

func TestNoCompatibleBuildListsPlatforms(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "terraform", "-o", "windows", "-a", "386", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "darwin/arm64, linux/amd64")
}

func TestConfigurationErrorsExitBeforeNetwork(t *testing.T) {
	tests := []struct {
		name     string
		detector platform.Detector
		args     []string
		wantErr  string
	}{
		{
			name:    "missing product",
			args:    nil,
			wantErr: `a product name or "all" is required`,
		},
		{
			name:     "unsupported host architecture",
			detector: fixedDetector{info: platform.Info{OS: "linux", Arch: "riscv64"}},
			args:     []string{"terraform"},
			wantErr:  "unsupported architecture: riscv64",
		},
		{
			name:    "unknown flag",
			args:    []string{"terraform", "--no-such-flag"},
			wantErr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.SetupTestEnv(t)
			srv := newCatalogServer(t)

			var stdout, stderr bytes.Buffer
			a := &app{
				stdin:    strings.NewReader(""),
				stdout:   &stdout,
				stderr:   &stderr,
				detector: fixedDetector{info: platform.Info{OS: "linux", Arch: "amd64"}},
			}
			if tt.detector != nil {
				a.detector = tt.detector
			}

			args := append(tt.args, "-f", env.Dest, "--base-url", srv.URL+"/v1/")
			code := a.execute(context.Background(), args)

			assert.Equal(t, 2, code)
			assert.Contains(t, stderr.String(), tt.wantErr)
			assert.Zero(t, atomic.LoadInt32(&srv.hits), "no request may be made")
		})
	}
}

func TestConfigFileSuppliesDefaults(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	configPath := filepath.Join(t.TempDir(), "relget.lua")
	code := `relget = { product = "terraform", extract = true, yes = true, base_url = "` + srv.URL + `/v1/" }`
	require.NoError(t, os.WriteFile(configPath, []byte(code), 0644))

	r := runCLI(t, "", "--config", configPath, "-f", env.Dest)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, dirNames(t, env.Dest), "terraform")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	configPath := filepath.Join(env.ConfigHome, "relget", "config.lua")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0755))
	code := `relget = { product_version = "1.0.0" }`
	require.NoError(t, os.WriteFile(configPath, []byte(code), 0644))

	// The per-user file is picked up automatically and its unknown key is fatal
	r := runCLI(t, "", "terraform", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	assert.Equal(t, 2, r.code)
	assert.Contains(t, r.stderr, `unknown key "product_version"`)

	require.NoError(t, os.WriteFile(configPath, []byte(`relget = { version = "1.0.0" }`), 0644))
	r = runCLI(t, "", "terraform", "-v", "1.9.3", "--list", "-f", env.Dest, "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "terraform 1.9.3")
}

func TestListProducts(t *testing.T) {
	testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "list", "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "terraform\nvault\n", r.stdout)
}

func TestListReleasesYAML(t *testing.T) {
	testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "list", "terraform", "--output", "yaml", "--base-url", srv.URL+"/v1/")
	require.Equal(t, 0, r.code, r.stderr)

	var listing productListing
	require.NoError(t, yaml.Unmarshal([]byte(r.stdout), &listing))
	assert.Equal(t, "terraform", listing.Product)
	require.Len(t, listing.Releases, 2)
	assert.True(t, listing.Releases[0].Prerelease)
	assert.Equal(t, []string{"darwin/arm64", "linux/amd64"}, listing.Releases[1].Platforms)
}

func TestListUnknownProduct(t *testing.T) {
	testutil.SetupTestEnv(t)
	srv := newCatalogServer(t)

	r := runCLI(t, "", "list", "nomad", "--base-url", srv.URL+"/v1/")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "product not found")
}

func TestListRejectsUnknownFormat(t *testing.T) {
	testutil.SetupTestEnv(t)
	r := runCLI(t, "", "list", "--output", "json")
	assert.Equal(t, 2, r.code)
}

func seedDestination(t *testing.T, dest string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "keep"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dest, archive.ScratchPrefix+"1-abcd1234"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "terraform"), []byte("x"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "terraform_1.9.3_linux_amd64.zip"), []byte("x"), 0644))
}

func TestClean(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	seedDestination(t, env.Dest)

	r := runCLI(t, "", "clean", "--yes", "-f", env.Dest)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Removed 3 of 3 entries")
	assert.Equal(t, []string{"keep"}, dirNames(t, env.Dest))
}

func TestCleanDeclined(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	seedDestination(t, env.Dest)

	r := runCLI(t, "n\n", "clean", "-f", env.Dest)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Aborted")
	assert.Len(t, dirNames(t, env.Dest), 4)
}

func TestCleanMissingDestination(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	r := runCLI(t, "", "clean", "-f", env.Dest)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Nothing to clean")
}

func TestVersionCommand(t *testing.T) {
	testutil.SetupTestEnv(t)
	r := runCLI(t, "", "version")
	require.Equal(t, 0, r.code)
	assert.True(t, strings.HasPrefix(r.stdout, "relget "+Version))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(usageError(assert.AnError)))
	assert.Equal(t, 1, exitCode(assert.AnError))
	assert.Equal(t, 1, exitCode(&exitError{code: 1}))
	assert.Empty(t, (&exitError{code: 1}).Error())
}
