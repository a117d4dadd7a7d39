package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/pageguard/pageguard/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.PageReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.PageReport) {
	md.H1("PageGuard Report")
	md.PlainText("")

	hash := report.ContentHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	if hash == "" {
		hash = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + report.Source + "`"},
			{"Scan Date", report.ScannedAt.Format("2006-01-02 15:04:05 MST")},
			{"Session", "`" + report.SessionID + "`"},
			{"Content Hash", "`" + hash + "`"},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.PageReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

// writeSummary writes the moderation summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.PageReport) {
	md.H2("Moderation Summary")
	md.PlainText("")

	counts := report.CategoryCounts()
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Elements Analyzed", strconv.Itoa(report.Analyzed)},
			{"🔴 Harmful", strconv.Itoa(counts[model.CategoryHarmful.String()])},
			{"🟠 Offensive", strconv.Itoa(counts[model.CategoryOffensive.String()])},
			{"🟡 Inappropriate", strconv.Itoa(counts[model.CategoryInappropriate.String()])},
			{"Rephrased", strconv.Itoa(report.Rephrased)},
			{"**Total Flagged**", "**" + strconv.Itoa(report.Harmful) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for the category distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.PageReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Flagged Content by Category"),
		piechart.WithShowData(true),
	)

	counts := report.CategoryCounts()
	for _, category := range flaggedCategories {
		if n := counts[category.String()]; n > 0 {
			chart.LabelAndIntValue(category.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the category counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.PageReport) {
	counts := report.CategoryCounts()
	switch {
	case counts[model.CategoryHarmful.String()] > 0:
		md.Cautionf(
			"Harmful content detected! %d passage(s) may promote harm.",
			counts[model.CategoryHarmful.String()],
		)
	case counts[model.CategoryOffensive.String()] > 0:
		md.Warningf(
			"Offensive content detected. %d passage(s) contain offensive language.",
			counts[model.CategoryOffensive.String()],
		)
	case counts[model.CategoryInappropriate.String()] > 0:
		md.Importantf(
			"Inappropriate content found. %d passage(s) flagged.",
			counts[model.CategoryInappropriate.String()],
		)
	default:
		md.Tip("No concerning content detected.")
	}
	md.PlainText("")
}

// writeFindings writes all findings grouped by category.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.PageReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No flagged passages.")
		md.PlainText("")
		return
	}

	categories := []struct {
		level  model.Category
		header string
	}{
		{model.CategoryHarmful, "### 🔴 Harmful"},
		{model.CategoryOffensive, "### 🟠 Offensive"},
		{model.CategoryInappropriate, "### 🟡 Inappropriate"},
	}

	for _, cat := range categories {
		findings := findingsFor(report, cat.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(cat.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Excerpt", "Confidence", "Source"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		excerpt := f.Excerpt
		if excerpt == "" {
			excerpt = "-"
		}
		rows[i] = []string{
			truncateString(excerpt, 60),
			fmt.Sprintf("%.2f", f.Confidence),
			string(f.Source),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	// Add explanations as collapsible details
	for _, f := range findings {
		if f.Explanation != "" {
			md.Details(truncateString(f.Excerpt, 40), f.Explanation)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [PageGuard](https://github.com/pageguard/pageguard)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
