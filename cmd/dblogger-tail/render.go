// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dblogger/dblogger/lib/entry"
	"github.com/dblogger/dblogger/lib/stats"
)

const timestampLayout = "2006-01-02 15:04:05"

// colorProfile maps a color mode to the profile records are rendered
// with. Auto colors only when the output is a terminal.
func colorProfile(mode string, isTerminal bool) (termenv.Profile, error) {
	switch mode {
	case "always":
		return termenv.TrueColor, nil
	case "never":
		return termenv.Ascii, nil
	case "auto", "":
		if isTerminal {
			return termenv.TrueColor, nil
		}
		return termenv.Ascii, nil
	default:
		return termenv.Ascii, fmt.Errorf("unknown color mode %q (want auto, always, or never)", mode)
	}
}

type viewerOptions struct {
	profile               termenv.Profile
	slowQueryMilliseconds int
	showStackTrace        bool
}

// viewer prints records as the pipe reader delivers them and keeps the
// duplicate counters for the current session.
type viewer struct {
	mu         sync.Mutex
	output     io.Writer
	statistics *stats.Statistics
	options    viewerOptions

	renderer       *lipgloss.Renderer
	timestampStyle lipgloss.Style
	sourceStyle    lipgloss.Style
	countStyle     lipgloss.Style
	repeatStyle    lipgloss.Style
	durationStyle  lipgloss.Style
	separatorStyle lipgloss.Style
	stackStyle     lipgloss.Style
}

func newViewer(output io.Writer, options viewerOptions) *viewer {
	// SetColorProfile pins the profile; otherwise the renderer
	// re-detects from the environment.
	renderer := lipgloss.NewRenderer(output, termenv.WithProfile(options.profile))
	renderer.SetColorProfile(options.profile)

	return &viewer{
		output:         output,
		statistics:     stats.New(),
		options:        options,
		renderer:       renderer,
		timestampStyle: renderer.NewStyle().Faint(true),
		sourceStyle:    renderer.NewStyle().Bold(true),
		countStyle:     renderer.NewStyle().Foreground(lipgloss.Color("#5fafff")),
		repeatStyle:    renderer.NewStyle().Foreground(lipgloss.Color("#ff0000")).Bold(true),
		durationStyle:  renderer.NewStyle().Foreground(lipgloss.Color("#000000")).Padding(0, 1),
		separatorStyle: renderer.NewStyle().Faint(true),
		stackStyle:     renderer.NewStyle().Faint(true),
	}
}

// Entry renders one record. The reader calls it from its loop.
func (v *viewer) Entry(record *entry.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()

	counts := v.statistics.Add(record)

	var builder strings.Builder
	builder.WriteString(v.header(record, counts))
	builder.WriteByte('\n')
	builder.WriteString(strings.TrimRight(record.Text(), "\r\n"))
	builder.WriteByte('\n')
	if v.options.showStackTrace && record.StackTrace() != "" {
		builder.WriteString(v.stackStyle.Render(strings.TrimRight(record.StackTrace(), "\n")))
		builder.WriteByte('\n')
	}
	builder.WriteByte('\n')
	io.WriteString(v.output, builder.String())
}

// Reset clears the counters and marks the boundary in the output.
func (v *viewer) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.statistics.Reset()
	io.WriteString(v.output, v.separatorStyle.Render(strings.Repeat("─", 24)+" reset "+strings.Repeat("─", 24))+"\n\n")
}

// header is "<timestamp> <source> [Nx] [Mx same parameters] [ <d> ms ]".
// Counts appear only for repeats.
func (v *viewer) header(record *entry.Record, counts stats.Counts) string {
	parts := make([]string, 0, 5)

	if timestamp, ok := record.Timestamp(); ok {
		parts = append(parts, v.timestampStyle.Render(timestamp.Format(timestampLayout)))
	}
	parts = append(parts, v.sourceStyle.Render(record.SourceName()))
	if counts.Query > 1 {
		parts = append(parts, v.countStyle.Render(strconv.Itoa(counts.Query)+"x"))
	}
	if counts.QueryAndParameters > 1 {
		parts = append(parts, v.repeatStyle.Render(strconv.Itoa(counts.QueryAndParameters)+"x same parameters"))
	}
	if milliseconds, ok := record.DurationMilliseconds(); ok {
		severity := stats.Severity(milliseconds, v.options.slowQueryMilliseconds)
		parts = append(parts, v.durationStyle.
			Background(severityColor(severity)).
			Render(strconv.Itoa(milliseconds)+" ms"))
	}
	return strings.Join(parts, " ")
}

// severityColor blends white toward red as severity goes from 0 to 1.
func severityColor(severity float64) lipgloss.Color {
	severity = min(max(severity, 0), 1)
	fade := 255 - int(255*severity)
	return lipgloss.Color(fmt.Sprintf("#ff%02x%02x", fade, fade))
}
