// Package report renders material-updater progress and summaries for humans.
package report

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/oy3o/materialbin"
	"github.com/oy3o/materialbin/internal/archive"
)

// Profile picks the color profile for w from a config color mode
// (auto, always, never). Auto follows the terminal and NO_COLOR.
func Profile(w io.Writer, mode string) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		return termenv.ANSI256
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}

// Printer writes styled lines to one destination.
type Printer struct {
	w      io.Writer
	name   lipgloss.Style
	tag    lipgloss.Style
	strong lipgloss.Style
	faint  lipgloss.Style
}

// New creates a Printer for w using the given color profile.
func New(w io.Writer, profile termenv.Profile) *Printer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	// lipgloss re-detects the profile unless it is set explicitly.
	r.SetColorProfile(profile)
	return &Printer{
		w:      w,
		name:   r.NewStyle().Foreground(lipgloss.Color("12")),
		tag:    r.NewStyle().Foreground(lipgloss.Color("11")),
		strong: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		faint:  r.NewStyle().Faint(true),
	}
}

// Processing implements archive.Reporter.
func (p *Printer) Processing(name string, source materialbin.Version) {
	fmt.Fprintf(p.w, "Processing file %s [%s]\n", p.name.Render(name), p.tag.Render(source.String()))
}

var _ archive.Reporter = (*Printer)(nil)

// Summary prints the outcome of a conversion. container is "zip" for
// archives and "file" for a bare material.
func (p *Printer) Summary(res *archive.Result, container string, dryRun bool) {
	fmt.Fprintln(p.w, p.strong.Render(fmt.Sprintf("Ported %d materials in %s to version %s",
		res.Materials, container, res.Target)))
	if res.Copied > 0 {
		fmt.Fprintf(p.w, "Copied %d other entries unchanged\n", res.Copied)
	}

	versions := make([]materialbin.Version, 0, len(res.Sources))
	for v := range res.Sources {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	parts := make([]string, 0, len(versions))
	for _, v := range versions {
		parts = append(parts, fmt.Sprintf("%s×%d", v, res.Sources[v]))
	}
	if len(parts) > 0 {
		fmt.Fprintln(p.w, p.faint.Render("Sources: "+strings.Join(parts, ", ")))
	}

	fmt.Fprintln(p.w, p.faint.Render(fmt.Sprintf("Output: %d bytes, blake3 %s", res.Written, res.Digest)))
	if dryRun {
		fmt.Fprintln(p.w, p.tag.Render("Dry run: nothing was written"))
	}
}

// Versions prints the registry in sniffing order with each layout's traits.
func (p *Printer) Versions() {
	for _, v := range materialbin.AllVersions() {
		l, _ := v.Layout()
		var traits []string
		if l.SamplerState {
			traits = append(traits, "sampler state")
		}
		if l.SamplerCustomType {
			traits = append(traits, "sampler custom type")
		}
		if l.InputConstraints {
			traits = append(traits, "input constraints")
		}
		if l.UniformOverrides {
			traits = append(traits, "uniform overrides")
		}
		fmt.Fprintf(p.w, "%s  format %d  %s\n",
			p.tag.Render(fmt.Sprintf("%-8s", v)), l.FormatNumber, p.faint.Render(strings.Join(traits, ", ")))
	}
}
