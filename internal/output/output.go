// Package output renders CLI output, with color when writing to a terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/seekr/internal/websearch"
)

// Color palette.
const (
	ColorAccent   = "154"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
	ColorLink     = "39"
)

// Styles holds the text styles used by a Writer.
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Link    lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// ColorStyles returns styles for terminal output.
func ColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Title:   lipgloss.NewStyle().Bold(true),
		Link:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLink)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Title:   lipgloss.NewStyle(),
		Link:    lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer. Color is used only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	styles := PlainStyles()
	if IsTTY(out) && !DetectNoColor() {
		styles = ColorStyles()
	}
	return &Writer{out: out, styles: styles}
}

// NewWithStyles creates a Writer with explicit styles.
func NewWithStyles(out io.Writer, styles Styles) *Writer {
	return &Writer{out: out, styles: styles}
}

// IsTTY checks if w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warning.Render("!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Error.Render("✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// SearchResults prints a page of results.
func (w *Writer) SearchResults(resp *websearch.SearchResponse) {
	if len(resp.Hits) == 0 {
		w.Warningf("No results for %q", resp.Query)
	} else {
		header := fmt.Sprintf("%q page %d, %d of %d results", resp.Query, resp.Page+1, len(resp.Hits), resp.Total)
		if resp.Personalized {
			header += ", personalized"
		}
		_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(header))
		w.Newline()
		for i := range resp.Hits {
			w.Hit(&resp.Hits[i])
		}
	}

	if len(resp.Failed) > 0 {
		w.Warningf("No results from: %s", strings.Join(resp.Failed, ", "))
	}
	if len(resp.Suggestions) > 0 {
		_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render("Related: "+strings.Join(resp.Suggestions, " · ")))
	}
	_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render(fmt.Sprintf("%d backend pages fetched in %s, horizon %d",
		resp.Fetched, resp.Elapsed.Round(time.Millisecond), resp.Horizon)))
}

// Hit prints one result.
func (w *Writer) Hit(h *websearch.Hit) {
	title := h.Title
	if strings.TrimSpace(title) == "" {
		title = h.URL
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Dim.Render(fmt.Sprintf("[%d]", h.ID)), w.styles.Title.Render(title))
	_, _ = fmt.Fprintf(w.out, "    %s\n", w.styles.Link.Render(h.URL))
	if h.Summary != "" {
		_, _ = fmt.Fprintf(w.out, "    %s\n", h.Summary)
	}

	meta := fmt.Sprintf("rank %.2f", h.Rank)
	if h.PersonalRank != nil {
		meta += fmt.Sprintf(", personal %.2f", *h.PersonalRank)
	}
	if len(h.Engines) > 0 {
		meta += " · " + strings.Join(h.Engines, ", ")
	}
	if h.DocType != "" && h.DocType != "webpage" {
		meta += " · " + h.DocType
	}
	_, _ = fmt.Fprintf(w.out, "    %s\n\n", w.styles.Dim.Render(meta))
}

// Engines prints the configured backends.
func (w *Writer) Engines(engines []websearch.EngineInfo) {
	for _, e := range engines {
		state := w.styles.Success.Render("enabled")
		if !e.Enabled {
			state = w.styles.Dim.Render("disabled")
		}
		circuit := e.Circuit
		if circuit == "open" {
			circuit = w.styles.Error.Render(circuit)
		}
		_, _ = fmt.Fprintf(w.out, "%-16s %-10s %-12s circuit %s\n", e.Name, state, e.Parser, circuit)
	}
}

// NodeStatus prints a node snapshot.
func (w *Writer) NodeStatus(st websearch.Status) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render("Node"))
	_, _ = fmt.Fprintf(w.out, "  uptime            %s\n", st.Uptime.Round(time.Second))
	_, _ = fmt.Fprintf(w.out, "  query contexts    %d\n", st.Contexts)
	_, _ = fmt.Fprintf(w.out, "  sweeper           %d passes, %d released\n", st.Sweeper.Passes, st.Sweeper.Released)
	_, _ = fmt.Fprintf(w.out, "  personalization   %s\n", onOff(st.Personalization))
	_, _ = fmt.Fprintf(w.out, "  content analysis  %s\n", onOff(st.ContentAnalysis))
	if q := st.Queries; q != nil {
		_, _ = fmt.Fprintf(w.out, "  queries           %d (%d zero-result, %d degraded, %.0f%% repeat)\n",
			q.TotalQueries, q.ZeroResultCount, q.DegradedCount, q.RepeatRate()*100)
	}
	if len(st.Engines) > 0 {
		w.Newline()
		_, _ = fmt.Fprintln(w.out, w.styles.Header.Render("Engines"))
		w.Engines(st.Engines)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
