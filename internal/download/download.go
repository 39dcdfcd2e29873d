package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Minute
	// DefaultRetries is the default number of download retries
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "relget/1.0"
)

var (
	// ErrInvalidURL means the URL names no file or cannot be fetched over HTTP
	ErrInvalidURL = errors.New("invalid download URL")
	// ErrTransferFailed means the server did not deliver the artifact
	ErrTransferFailed = errors.New("transfer failed")
)

// TransferError carries the HTTP status of a failed transfer
type TransferError struct {
	URL        string
	StatusCode int
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("download %s: unexpected status code: %d", e.URL, e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrTransferFailed)
func (e *TransferError) Unwrap() error {
	return ErrTransferFailed
}

// retryable reports whether another attempt could succeed
func (e *TransferError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Result describes a completed Fetch
type Result struct {
	Path     string
	Skipped  bool // file was already present and not re-downloaded
	Bytes    int64
	Duration time.Duration
}

// Manager handles HTTP downloads with retry logic
type Manager struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   func(attempt int) time.Duration
	logger    *slog.Logger
}

// NewManager creates a new download manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
		// Exponential backoff: 1s, 2s, 4s
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
		logger: logger,
	}
}

// FileName derives the destination file name from the URL's final path segment
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" || name == ".." {
		return "", fmt.Errorf("%w: no file name in %s", ErrInvalidURL, rawURL)
	}
	return name, nil
}

// Fetch downloads rawURL into destDir and returns the local path
func (m *Manager) Fetch(ctx context.Context, rawURL, destDir string, force bool) (string, error) {
	res, err := m.FetchWithResult(ctx, rawURL, destDir, force)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// FetchWithResult is Fetch with transfer details
func (m *Manager) FetchWithResult(ctx context.Context, rawURL, destDir string, force bool) (*Result, error) {
	start := time.Now()

	name, err := FileName(rawURL)
	if err != nil {
		return nil, err
	}
	destPath := filepath.Join(destDir, name)

	if !force && fileExists(destPath) {
		m.logger.Info("file already present, skipping download", "path", destPath)
		return &Result{Path: destPath, Skipped: true}, nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create dest dir: %w", err)
	}

	m.logger.Info("downloading", "url", rawURL, "path", destPath)
	n, err := m.downloadToFile(ctx, rawURL, destPath)
	if err != nil {
		return nil, err
	}

	res := &Result{Path: destPath, Bytes: n, Duration: time.Since(start)}
	m.logger.Info("download completed", "path", destPath, "bytes", n, "duration", res.Duration)
	return res, nil
}

// downloadToFile downloads a URL to a specific file path, retrying transient failures
func (m *Manager) downloadToFile(ctx context.Context, rawURL, destPath string) (int64, error) {
	var lastErr error

	for attempt := 0; attempt <= m.retries; attempt++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if attempt > 0 {
			wait := m.backoff(attempt)
			m.logger.Warn("retrying download", "url", rawURL, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		n, err := m.downloadOnce(ctx, rawURL, destPath)
		if err == nil {
			return n, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if errors.Is(err, ErrInvalidURL) {
			return 0, err
		}
		var te *TransferError
		if errors.As(err, &te) && !te.retryable() {
			return 0, err
		}
	}

	return 0, fmt.Errorf("download failed after %d retries: %w", m.retries, lastErr)
}

// downloadOnce performs a single download attempt
func (m *Manager) downloadOnce(ctx context.Context, rawURL, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: create request: %v", ErrInvalidURL, err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return 0, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, req.URL.Scheme)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: execute request: %w", ErrTransferFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &TransferError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: copy response body: %w", ErrTransferFailed, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return 0, fmt.Errorf("%w: short body: got %d of %d bytes", ErrTransferFailed, n, resp.ContentLength)
	}

	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	// Windows cannot rename over an existing file
	if runtime.GOOS == "windows" {
		if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("remove existing file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return n, nil
}

// fileExists checks if a non-directory entry exists at path
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
