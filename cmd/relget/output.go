package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZebulonRouseFrantzich/relget/internal/batch"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A80")
)

// styles are bound to one writer so color is only emitted to terminals
type styles struct {
	title   lipgloss.Style
	bold    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	fail    lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		title:   r.NewStyle().Bold(true),
		bold:    r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		fail:    r.NewStyle().Foreground(colorError),
	}
}

// renderReport prints one line per product followed by the totals
func (s *styles) renderReport(w io.Writer, report *batch.Report, listOnly bool) {
	for _, res := range report.Results {
		switch res.Status {
		case batch.StatusSucceeded:
			fmt.Fprintf(w, "%s %s %s %s\n", s.success.Render("✓"), s.bold.Render(res.Product), res.Version, s.muted.Render(res.Platform))
			if listOnly {
				fmt.Fprintf(w, "    %s\n", res.URL)
				continue
			}
			archive := filepath.Base(res.Archive)
			if res.Cached {
				archive += s.muted.Render(" (already present)")
			}
			fmt.Fprintf(w, "    %s\n", archive)
			if res.Backend != "" {
				fmt.Fprintf(w, "    %s %s\n", plural(res.Extracted, "executable"), s.muted.Render("via "+res.Backend))
				for _, p := range res.Placed {
					fmt.Fprintf(w, "      %s\n", p)
				}
			}
		case batch.StatusSkipped:
			fmt.Fprintf(w, "%s %s %s %s\n", s.warning.Render("○"), s.bold.Render(res.Product), res.Version, s.muted.Render("skipped: "+errString(res.Err)))
		default:
			fmt.Fprintf(w, "%s %s: %s\n", s.fail.Render("✗"), s.bold.Render(res.Product), errString(res.Err))
		}
	}

	summary := fmt.Sprintf("%d succeeded, %d failed, %d skipped", report.Succeeded(), report.Failed(), report.Skipped())
	if report.Failed() > 0 {
		summary = s.fail.Render(summary)
	}
	fmt.Fprintf(w, "\n%s\n", summary)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
