package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/relget/internal/release"
)

// releaseEntry is one supported release as printed by list
type releaseEntry struct {
	Version    string   `yaml:"version"`
	Prerelease bool     `yaml:"prerelease"`
	Platforms  []string `yaml:"platforms"`
}

type productListing struct {
	Product  string         `yaml:"product"`
	Releases []releaseEntry `yaml:"releases"`
}

func (a *app) newListCmd(f *downloadFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list [product]",
		Short: "List catalog products, or the supported releases of one product",
		Example: `  relget list
  relget list terraform
  relget list vault --output yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "yaml" {
				return usageError(fmt.Errorf("unknown output format %q (want text or yaml)", output))
			}

			cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, cfg)

			client, err := a.newCatalogClient(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				products, err := client.Products(cmd.Context())
				if err != nil {
					return err
				}
				if output == "yaml" {
					return writeYAML(out, products)
				}
				for _, p := range products {
					fmt.Fprintln(out, p)
				}
				return nil
			}

			releases, err := client.Releases(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cfg.SortVersions {
				releases = release.SortByVersion(releases)
			}
			supported := release.Supported(releases)
			if len(supported) == 0 {
				if len(releases) == 0 {
					return fmt.Errorf("list %s: %w", args[0], release.ErrProductNotFound)
				}
				return fmt.Errorf("list %s: %w", args[0], release.ErrNoSupportedVersion)
			}

			listing := productListing{Product: args[0]}
			for _, r := range supported {
				listing.Releases = append(listing.Releases, releaseEntry{
					Version:    r.Version,
					Prerelease: r.IsPrerelease,
					Platforms:  release.Platforms(r),
				})
			}
			if output == "yaml" {
				return writeYAML(out, listing)
			}
			newStyles(out).renderListing(out, listing)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "text", "output format: text or yaml")
	cmd.Flags().BoolVar(&f.sortVersions, "sort-versions", false, "order releases by semantic version instead of catalog order")
	return cmd
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func (s *styles) renderListing(w io.Writer, listing productListing) {
	fmt.Fprintln(w, s.title.Render(listing.Product))
	for _, r := range listing.Releases {
		version := r.Version
		if r.Prerelease {
			version += s.warning.Render(" (prerelease)")
		}
		fmt.Fprintf(w, "  %s\n", version)
		fmt.Fprintf(w, "    %s\n", s.muted.Render(strings.Join(r.Platforms, " ")))
	}
}
