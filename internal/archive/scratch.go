package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ScratchPrefix starts the name of every scratch directory
const ScratchPrefix = ".relget-scratch-"

// maxScratchAttempts bounds retries when a generated name is already taken
const maxScratchAttempts = 5

// registry tracks live scratch directories for interrupt cleanup
var registry = struct {
	sync.Mutex
	dirs map[string]struct{}
}{dirs: make(map[string]struct{})}

// newScratchDir creates a uniquely named directory under parent and registers it
func newScratchDir(parent string, clock Clock) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxScratchAttempts; attempt++ {
		name := fmt.Sprintf("%s%d-%s", ScratchPrefix, clock.Now().UnixNano(), uuid.NewString()[:8])
		dir := filepath.Join(parent, name)

		err := os.Mkdir(dir, 0700)
		if err == nil {
			registry.Lock()
			registry.dirs[dir] = struct{}{}
			registry.Unlock()
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create scratch dir: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("create scratch dir after %d attempts: %w", maxScratchAttempts, lastErr)
}

// removeScratchDir deletes a scratch directory and unregisters it
func removeScratchDir(dir string) error {
	registry.Lock()
	delete(registry.dirs, dir)
	registry.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}

// CleanupScratch removes every scratch directory still registered and
// returns how many were removed. It is meant for signal handlers.
func CleanupScratch() int {
	registry.Lock()
	dirs := make([]string, 0, len(registry.dirs))
	for dir := range registry.dirs {
		dirs = append(dirs, dir)
	}
	registry.dirs = make(map[string]struct{})
	registry.Unlock()

	removed := 0
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err == nil {
			removed++
		}
	}
	return removed
}

// IsScratchDir reports whether name looks like a scratch directory left behind
// by an interrupted run
func IsScratchDir(name string) bool {
	return strings.HasPrefix(name, ScratchPrefix) && len(name) > len(ScratchPrefix)
}
