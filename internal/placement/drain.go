package placement

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Drain walks root and places every qualifying regular file at the top level
// of destDir. Files that do not qualify stay where they are, to be discarded
// together with root. It returns the final paths of the placed files.
//
// Drain is all or nothing: on error the files placed so far are removed and
// any file replaced under Force is restored.
func Drain(root, destDir string, q Qualifier, p Policy) ([]string, error) {
	j := &journal{backups: make(map[string]string)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !q(path, info) {
			return nil
		}

		if p.Force {
			if err := j.stash(filepath.Join(destDir, filepath.Base(path))); err != nil {
				return err
			}
		}

		final, err := Place(path, destDir, p)
		if err != nil {
			return err
		}
		j.placed = append(j.placed, final)
		return nil
	})
	if err != nil {
		if rbErr := j.rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return nil, fmt.Errorf("drain %s: %w", root, err)
	}

	j.commit()
	return j.placed, nil
}

// journal records the changes one Drain made to the destination
type journal struct {
	placed  []string
	backups map[string]string // original path -> stashed copy
	order   []string
}

// stash moves a regular file at target aside so a forced replacement can be
// undone. Targets this drain placed itself are left to Place.
func (j *journal) stash(target string) error {
	if _, ok := j.backups[target]; ok {
		return nil
	}
	for _, p := range j.placed {
		if p == target {
			return nil
		}
	}
	info, err := os.Lstat(target)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	backup, err := backupName(target)
	if err != nil {
		return err
	}
	if err := os.Rename(target, backup); err != nil {
		return fmt.Errorf("stash existing file: %w", err)
	}
	j.backups[target] = backup
	j.order = append(j.order, target)
	return nil
}

// rollback removes placed files and puts stashed originals back
func (j *journal) rollback() error {
	var errs []error
	for i := len(j.placed) - 1; i >= 0; i-- {
		if err := os.Remove(j.placed[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	for i := len(j.order) - 1; i >= 0; i-- {
		target := j.order[i]
		if err := os.Rename(j.backups[target], target); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", target, err))
		}
	}
	return errors.Join(errs...)
}

// commit discards the stashed originals. A stash that cannot be removed
// stays behind as a hidden file; the placement itself already succeeded.
func (j *journal) commit() {
	for _, target := range j.order {
		_ = os.Remove(j.backups[target])
	}
}

// backupName returns a free hidden name next to target
func backupName(target string) (string, error) {
	dir, base := filepath.Split(target)
	for n := 0; n < maxSuffix; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf(".%s.%d.replaced", base, n))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free backup name for %s", target)
}
