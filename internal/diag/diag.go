// Package diag carries recoverable warnings through the conversion
// pipeline. Stages degrade gracefully (unknown callout kinds, dangling
// references, failed image uploads) and report what degraded here
// instead of failing the run.
package diag

import "fmt"

// Kind classifies a recoverable condition.
type Kind string

const (
	UnterminatedBlock   Kind = "unterminated_block"
	UnresolvedReference Kind = "unresolved_reference"
	UnknownCallout      Kind = "unknown_callout"
	ImageResolution     Kind = "image_resolution"
	PageQuotaExceeded   Kind = "page_quota_exceeded"
)

// Warning is a single recoverable condition with source context.
type Warning struct {
	Kind   Kind
	Line   int // 1-based source line, 0 if not line-addressable
	Detail string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", w.Kind, w.Line, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// Warnings accumulates recoverable conditions in document order.
type Warnings []Warning

// Add appends a warning.
func (ws *Warnings) Add(kind Kind, line int, format string, args ...any) {
	*ws = append(*ws, Warning{Kind: kind, Line: line, Detail: fmt.Sprintf(format, args...)})
}

// Merge appends another set of warnings.
func (ws *Warnings) Merge(other Warnings) {
	*ws = append(*ws, other...)
}
