package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelaudio/wakeengine/internal/build"
	"github.com/kestrelaudio/wakeengine/pkg/wakeengine"
)

var (
	bannerTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true)
	bannerLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8"))
	bannerValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8FAFC")).
			Bold(true)
)

// printBanner writes a short styled startup summary, per SPEC_FULL.md
// §6's --banner flag.
func printBanner(cfg wakeengine.EngineConfig) {
	keywords := make([]string, len(cfg.Detectors))
	for i, d := range cfg.Detectors {
		keywords[i] = d.Keyword
	}

	mode := "line"
	switch cfg.OutputMode {
	case wakeengine.OutputJSON:
		mode = "json"
	case wakeengine.OutputQuiet:
		mode = "quiet"
	}

	listen := cfg.ListenAddr
	if listen == "" {
		listen = "(stdin only)"
	}

	fmt.Fprintln(os.Stderr, bannerTitle.Render(build.String()))
	fmt.Fprintf(os.Stderr, "  %s %s\n", bannerLabel.Render("keywords:"), bannerValue.Render(strings.Join(keywords, ", ")))
	fmt.Fprintf(os.Stderr, "  %s %s\n", bannerLabel.Render("output:"), bannerValue.Render(mode))
	fmt.Fprintf(os.Stderr, "  %s %s\n", bannerLabel.Render("listen:"), bannerValue.Render(listen))
}
