// Package logger provides verbose logging for ragdesk.
// When verbose mode is enabled via the --verbose flag, pipeline stages are
// printed to stderr so users can follow ingestion and retrieval.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	styles            = newTagStyles(os.Stderr)
)

// tagStyles colours level tags. Renderers bound to non-terminal writers
// emit plain text.
type tagStyles struct {
	debug   lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	section lipgloss.Style
}

func newTagStyles(w io.Writer) tagStyles {
	r := lipgloss.NewRenderer(w)
	return tagStyles{
		debug:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		info:    r.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")).Bold(true),
		section: r.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true),
	}
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	styles = newTagStyles(w)
}

func logf(tag lipgloss.Style, label, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, tag.Render(label)+" "+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(styles.debug, "[DEBUG]", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(styles.info, "[INFO]", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(styles.warn, "[WARN]", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n%s\n", styles.section.Render("=== "+name+" ==="))
	}
}

// Timed logs the elapsed time of a stage when the returned func is called.
//
//	defer logger.Timed("embed")()
func Timed(stage string) func() {
	start := time.Now()
	return func() {
		Debug("%s took %s", stage, time.Since(start).Round(time.Millisecond))
	}
}
