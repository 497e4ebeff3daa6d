// Package ui provides styled console output for the modular-ai server.
// It prints colorized startup info, dispatch badges and results.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Badge colors
	successBadge  = color.New(color.BgGreen, color.FgBlack, color.Bold)
	degradedBadge = color.New(color.BgYellow, color.FgBlack, color.Bold)
	errorBadge    = color.New(color.BgRed, color.FgWhite, color.Bold)
	warningBadge  = color.New(color.FgYellow, color.Bold)
	infoBadge     = color.New(color.FgCyan, color.Bold)
	providerBadge = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	neonBlue    = color.New(color.FgHiCyan, color.Bold)
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCH BADGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintDispatch logs one resolved dispatch.
// Format: 15:04:05 [ OK | DEGRADED | FAILED ] requested → served  123ms
func PrintDispatch(requested, served string, degraded bool, latency time.Duration, err error) {
	out := color.Output
	mutedText.Fprintf(out, "%s ", time.Now().Format("15:04:05"))

	switch {
	case err != nil:
		errorBadge.Fprint(out, " FAILED ")
	case degraded:
		degradedBadge.Fprint(out, " DEGRADED ")
	default:
		successBadge.Fprint(out, " OK ")
	}

	fmt.Fprintf(out, " %s", requested)
	if err == nil && served != requested {
		warningText.Fprint(out, " → ")
		fmt.Fprint(out, served)
	}
	fmt.Fprint(out, " ")
	printLatency(latency)

	if err != nil {
		errorText.Fprintf(out, "  %v", err)
	}
	fmt.Fprintln(out)
}

// PrintResponse prints a response the way the result panel shows it.
func PrintResponse(result, provider string, degraded bool) {
	out := color.Output
	providerBadge.Fprintf(out, " %s ", provider)
	if degraded {
		fmt.Fprint(out, " ")
		degradedBadge.Fprint(out, " Degraded ")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)
	fmt.Fprintln(out, result)
}

// PrintError prints a user-facing error line.
func PrintError(msg string) {
	out := color.Output
	errorBadge.Fprint(out, " ERROR ")
	fmt.Fprint(out, " ")
	errorText.Fprintln(out, msg)
}

// printLatency prints latency with color gradient.
// Green: < 500ms, Yellow: < 2s, Red: >= 2s
func printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%5dms", ms)

	switch {
	case ms < 500:
		successText.Fprint(color.Output, latencyStr)
	case ms < 2000:
		warningText.Fprint(color.Output, latencyStr)
	default:
		errorText.Fprint(color.Output, latencyStr)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintStartupInfo prints styled server startup information.
func PrintStartupInfo(addr, model string, hasCredential bool, mockLatency time.Duration) {
	out := color.Output
	fmt.Fprintln(out)
	infoBadge.Fprint(out, "[SERVER]")
	fmt.Fprint(out, " Listening on ")
	neonBlue.Fprintf(out, "http://%s\n", addr)

	infoBadge.Fprint(out, "[SERVER]")
	fmt.Fprint(out, " Primary: ")
	infoText.Fprint(out, model)
	fmt.Fprint(out, " | Credential: ")
	if hasCredential {
		successText.Fprint(out, "configured")
	} else {
		errorText.Fprint(out, "missing (requests fall back to groq-mock)")
	}
	fmt.Fprint(out, " | Mock latency: ")
	infoText.Fprintln(out, mockLatency)

	fmt.Fprintln(out)
	printEndpoints()
}

// printEndpoints prints the available HTTP endpoints.
func printEndpoints() {
	out := color.Output
	rows := [][2]string{
		{"GET  /             ", "Prompt page"},
		{"POST /submit       ", "Submit prompt for this session"},
		{"GET  /events       ", "Session state stream (SSE)"},
		{"POST /api/generate ", "Stateless generation (JSON)"},
		{"GET  /health       ", "Health check"},
	}

	mutedText.Fprintln(out, "  ┌──────────────────────────────────────────────────────┐")
	for _, row := range rows {
		mutedText.Fprint(out, "  │ ")
		fmt.Fprint(out, row[0])
		mutedText.Fprintf(out, " %-33s", row[1])
		mutedText.Fprintln(out, "│")
	}
	mutedText.Fprintln(out, "  └──────────────────────────────────────────────────────┘")
	fmt.Fprintln(out)
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Fprintln(color.Output)
	warningBadge.Fprint(color.Output, "[SHUTDOWN]")
	warningText.Fprintln(color.Output, " Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Fprint(color.Output, " OK ")
	fmt.Fprint(color.Output, " ")
	successText.Fprintln(color.Output, "Server stopped. Goodbye!")
}
