package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pageguard/pageguard/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.PageReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.PageReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PAGEGUARD REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:    %s\n", report.Source))
	sb.WriteString(fmt.Sprintf("Scan Date: %s\n", report.ScannedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Session:   %s\n", report.SessionID))

	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:    ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the moderation summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.PageReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("MODERATION SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  ANALYZED:  %d\n", report.Analyzed))
	sb.WriteString(fmt.Sprintf("  FLAGGED:   %d\n", report.Harmful))
	sb.WriteString(fmt.Sprintf("  REPHRASED: %d\n", report.Rephrased))
	sb.WriteString("\n")

	counts := report.CategoryCounts()
	for _, category := range flaggedCategories {
		if n := counts[category.String()]; n > 0 || w.showEmpty {
			sb.WriteString(fmt.Sprintf("  %-15s %d\n", strings.ToUpper(category.String())+":", n))
		}
	}
	if report.HasFindings() || w.showEmpty {
		sb.WriteString("\n")
	}
}

// writeFindings writes all findings grouped by category, most severe
// first.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.PageReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, category := range flaggedCategories {
		findings := findingsFor(report, category)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForCategory(sb, category, findings)
	}
}

// writeFindingsForCategory writes findings of a specific category.
func (w *SimpleWriter) writeFindingsForCategory(sb *strings.Builder, category model.Category, findings []model.Finding) {
	indicator := categoryIndicator(category)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, category.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Excerpt))
		sb.WriteString(fmt.Sprintf("    Confidence: %.2f (%s)\n", finding.Confidence, finding.Source))
		if w.verbose && finding.Explanation != "" {
			sb.WriteString(fmt.Sprintf("    Explanation: %s\n", finding.Explanation))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by PageGuard\n")
	sb.WriteString("https://github.com/pageguard/pageguard\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// flaggedCategories lists the acted-on categories, most severe first.
var flaggedCategories = []model.Category{
	model.CategoryHarmful,
	model.CategoryOffensive,
	model.CategoryInappropriate,
}

// findingsFor filters a report's findings by category, preserving order.
func findingsFor(report *model.PageReport, category model.Category) []model.Finding {
	var out []model.Finding
	for _, f := range report.Findings {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// categoryIndicator returns a visual indicator for the category.
func categoryIndicator(category model.Category) string {
	switch category {
	case model.CategoryHarmful:
		return "!!!"
	case model.CategoryOffensive:
		return "!!"
	case model.CategoryInappropriate:
		return "!"
	default:
		return "-"
	}
}
