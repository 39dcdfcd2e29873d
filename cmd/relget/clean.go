package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/relget/internal/archive"
	"github.com/ZebulonRouseFrantzich/relget/internal/batch"
)

func (a *app) newCleanCmd(f *downloadFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove downloaded files from the destination directory",
		Long: `Removes every regular file directly inside the destination directory,
together with scratch directories left behind by interrupted extractions.
Other subdirectories are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, cfg)
			out := cmd.OutOrStdout()

			targets, err := cleanTargets(cfg.Dest)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				fmt.Fprintf(out, "Nothing to clean in %s\n", cfg.Dest)
				return nil
			}

			if !cfg.Yes {
				fmt.Fprintf(out, "The following will be removed from %s:\n", cfg.Dest)
				for _, t := range targets {
					fmt.Fprintf(out, "  • %s\n", filepath.Base(t))
				}
				ok, err := batch.NewLinePrompter(a.stdin, out).Confirm(cmd.Context(), "Continue?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			var errs []error
			removed := 0
			for _, t := range targets {
				if err := os.RemoveAll(t); err != nil {
					errs = append(errs, err)
					continue
				}
				removed++
			}
			fmt.Fprintf(out, "Removed %d of %d entries from %s\n", removed, len(targets), cfg.Dest)
			if len(errs) > 0 {
				return fmt.Errorf("clean %s: %w", cfg.Dest, errors.Join(errs...))
			}
			return nil
		},
	}
}

// cleanTargets lists the regular files and scratch directories in dest.
// A missing directory has nothing to clean.
func cleanTargets(dest string) ([]string, error) {
	entries, err := os.ReadDir(dest)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dest, err)
	}

	var targets []string
	for _, e := range entries {
		if e.Type().IsRegular() || (e.IsDir() && archive.IsScratchDir(e.Name())) {
			targets = append(targets, filepath.Join(dest, e.Name()))
		}
	}
	return targets, nil
}
