// Package diag accumulates non-fatal diagnostics produced during a run.
// Recoverable issues (skipped declarations, unparseable files, unresolved
// references) are collected here and reported after a successful run instead
// of aborting it.
package diag

import (
	"fmt"
	"sort"
	"sync"

	"adx/internal/errors"
)

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityInfo for informational notices
	SeverityInfo Severity = "info"
	// SeverityWarning for recoverable problems the author should fix
	SeverityWarning Severity = "warning"
)

// Diagnostic is one recoverable issue tied to a source location.
type Diagnostic struct {
	Severity Severity         `json:"severity" yaml:"severity"`
	Code     errors.ErrorCode `json:"code" yaml:"code"`
	Path     string           `json:"path,omitempty" yaml:"path,omitempty"`
	Line     int              `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string           `json:"message" yaml:"message"`
}

// String formats the diagnostic for the stderr summary.
func (d Diagnostic) String() string {
	loc := d.Path
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, loc, d.Message)
}

// Collector gathers diagnostics. Safe for concurrent use during the parallel
// parse phase.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Warnf adds a warning diagnostic with a formatted message.
func (c *Collector) Warnf(code errors.ErrorCode, path string, line int, format string, args ...interface{}) {
	c.Add(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Path:     path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Infof adds an info diagnostic with a formatted message.
func (c *Collector) Infof(code errors.ErrorCode, path string, line int, format string, args ...interface{}) {
	c.Add(Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Path:     path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Items returns the collected diagnostics sorted by path, line, then message
// so the summary is deterministic regardless of parse completion order.
func (c *Collector) Items() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Message < out[j].Message
	})

	return out
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
