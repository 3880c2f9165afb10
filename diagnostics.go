// diagnostics.go - Shared diagnostic model and banner rendering
//
// Every phase reports problems through the same shape: a message anchored
// at a 1-based line/column, an optional remediation hint, and (when the
// phase has the source at hand) the offending source line rendered with a
// caret. Phases accumulate diagnostics and hand the caller a bundled
// DiagnosticList instead of stopping at the first problem.
package box

import (
	"fmt"
	"strings"
)

const bannerWidth = 70

// Diagnostic is a single rendered-ready problem report.
type Diagnostic struct {
	Phase      string // e.g. "LEXER ERROR", "PARSER ERROR", "DOUBLE-FREE"
	Message    string
	Line       int
	Column     int
	Hint       string
	SourceLine string
	ShowSource bool
}

// Format renders the diagnostic in the fixed banner layout:
//
//	======================================================================
//	<Phase> at Line <L>, Column <C>
//	======================================================================
//	Error: <message>
//
//	<L:4d> | <source line>
//	     | <spaces>^
//
//	Hint: <remediation>
//	======================================================================
func (d Diagnostic) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", bannerWidth))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s at Line %d, Column %d\n", d.Phase, d.Line, d.Column)
	b.WriteString(strings.Repeat("=", bannerWidth))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Error: %s\n", d.Message)

	if d.ShowSource {
		fmt.Fprintf(&b, "\n%4d | %s\n", d.Line, d.SourceLine)
		pad := d.Column - 1
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", pad))
	}

	if d.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s\n", d.Hint)
	}

	b.WriteString(strings.Repeat("=", bannerWidth))
	b.WriteString("\n")
	return b.String()
}

func (d Diagnostic) Error() string { return d.Format() }

// DiagnosticList bundles every diagnostic a phase accumulated, so one run
// surfaces all problems at once. Noun names the error class used in the
// summary line ("lexical", "parsing").
type DiagnosticList struct {
	Noun        string
	Diagnostics []Diagnostic
}

func (l *DiagnosticList) Error() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Repeat("#", bannerWidth))
	b.WriteString("\n")
	fmt.Fprintf(&b, "COMPILATION FAILED: Found %d %s error(s)\n", len(l.Diagnostics), l.Noun)
	b.WriteString(strings.Repeat("#", bannerWidth))
	b.WriteString("\n")
	for _, d := range l.Diagnostics {
		b.WriteString(d.Format())
	}
	return b.String()
}

// sourceLineAt returns the 1-based line of src, or "" when out of range.
func sourceLineAt(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line >= 1 && line <= len(lines) {
		return lines[line-1]
	}
	return ""
}
