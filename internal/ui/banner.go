// Package ui provides styled console output for the modular-ai server.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASCII ART BANNER
// ══════════════════════════════════════════════════════════════════════════════

// PrintBanner displays the startup banner.
func PrintBanner(version string) {
	out := color.Output
	fmt.Fprintln(out)

	frame := color.New(color.FgMagenta, color.Bold)
	title := color.New(color.FgHiMagenta, color.Bold)
	accent := color.New(color.FgHiCyan)
	dim := color.New(color.FgHiBlack)

	frame.Fprintln(out, "╔══════════════════════════════════════════════════════════╗")

	frame.Fprint(out, "║  ")
	title.Fprint(out, "█▀▄▀█ █▀█ █▀▄ █ █ █   ▄▀█ █▀█   ")
	accent.Fprint(out, "▄▀█ █")
	frame.Fprintln(out, "                      ║")

	frame.Fprint(out, "║  ")
	title.Fprint(out, "█ ▀ █ █▄█ █▄▀ █▄█ █▄▄ █▀█ █▀▄   ")
	accent.Fprint(out, "█▀█ █")
	frame.Fprintln(out, "                      ║")

	frame.Fprintln(out, "╠══════════════════════════════════════════════════════════╣")

	frame.Fprint(out, "║  ")
	accent.Fprint(out, "MULTI-PROVIDER PROMPT CONSOLE")
	dim.Fprint(out, "  │  ")
	fmt.Fprintf(out, "%-10s", version)
	frame.Fprintln(out, "           ║")

	frame.Fprintln(out, "╚══════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)
}
