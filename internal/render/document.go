package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/harukimoto/devkpi/internal/models"
)

const timestampLayout = "2006-01-02 15:04"

// FilteredTask bundles a task with its related rows for the filtered report.
type FilteredTask struct {
	Task    models.Task
	Updates []models.Update
	Defects []models.Defect
}

// DocumentRenderer turns structured task data into report documents.
type DocumentRenderer interface {
	TaskReport(task *models.Task, updates []models.Update, defects []models.Defect) ([]byte, error)
	AnalyticsReport(task *models.Task, updates []models.Update, defects []models.Defect, data models.AnalyticsData, chartPNG []byte) ([]byte, error)
	FilteredReport(entries []FilteredTask) ([]byte, error)
}

// PDFDocumentRenderer renders the report layouts as PDF documents.
type PDFDocumentRenderer struct{}

func NewDocumentRenderer() DocumentRenderer {
	return PDFDocumentRenderer{}
}

// TaskReport renders the basic report: title, status summary, cycle time,
// chronological updates and the defect list.
func (PDFDocumentRenderer) TaskReport(task *models.Task, updates []models.Update, defects []models.Defect) ([]byte, error) {
	page := newReportPage()

	page.heading(fmt.Sprintf("Task Report: %s", task.Name))
	page.taskSummary(task)
	page.updatesSection(updates, 0)
	page.defectsSection(defects)

	return page.output()
}

// AnalyticsReport renders the enriched report: the basic layout plus the
// analytics summary, key metrics and the embedded chart image.
func (PDFDocumentRenderer) AnalyticsReport(task *models.Task, updates []models.Update, defects []models.Defect, data models.AnalyticsData, chartPNG []byte) ([]byte, error) {
	page := newReportPage()

	page.heading(fmt.Sprintf("Task Report with Analytics: %s", task.Name))
	page.taskSummary(task)
	page.updatesSection(updates, 0)
	page.defectsSection(defects)

	page.subheading("Analytics Summary")
	for _, line := range strings.Split(data.Summary, "\n") {
		page.bodyLine(line)
	}

	page.subheading("Key Metrics")
	for i, label := range data.Labels {
		if i >= len(data.Values) {
			break
		}
		page.bodyLine(fmt.Sprintf("%s: %v", label, data.Values[i]))
	}

	page.subheading("Analytics Chart")
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	page.pdf.RegisterImageOptionsReader("analytics-chart", opts, bytes.NewReader(chartPNG))
	page.pdf.ImageOptions("analytics-chart", 15, page.pdf.GetY(), 170, 0, true, opts, 0, "")

	return page.output()
}

// FilteredReport concatenates the per-task layout across tasks with a
// separator line. Update content is truncated to 100 characters.
func (PDFDocumentRenderer) FilteredReport(entries []FilteredTask) ([]byte, error) {
	page := newReportPage()

	page.heading("Filtered Tasks Report")
	page.bodyLine(fmt.Sprintf("Report generated on: %s", time.Now().Format(timestampLayout)))
	page.bodyLine(fmt.Sprintf("Total tasks found: %d", len(entries)))
	page.pdf.Ln(4)

	for _, entry := range entries {
		task := entry.Task
		page.subheading(fmt.Sprintf("Task: %s", task.Name))
		page.taskSummary(&task)
		page.updatesSection(entry.Updates, 100)
		page.defectsSection(entry.Defects)
		page.bodyLine(strings.Repeat("-", 70))
		page.pdf.Ln(2)
	}

	return page.output()
}

// reportPage wraps one document under construction. The core fonts are
// cp1252-encoded, so every text cell goes through the unicode translator;
// summary bullets and user-entered text stay intact.
type reportPage struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func newReportPage() *reportPage {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return &reportPage{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (p *reportPage) heading(text string) {
	p.pdf.SetFont("Helvetica", "B", 16)
	p.pdf.MultiCell(0, 9, p.translate(text), "", "L", false)
	p.pdf.Ln(2)
}

func (p *reportPage) subheading(text string) {
	p.pdf.Ln(2)
	p.pdf.SetFont("Helvetica", "B", 12)
	p.pdf.MultiCell(0, 7, p.translate(text), "", "L", false)
}

func (p *reportPage) bodyLine(text string) {
	p.pdf.SetFont("Helvetica", "", 10)
	p.pdf.MultiCell(0, 6, p.translate(text), "", "L", false)
}

func (p *reportPage) taskSummary(task *models.Task) {
	p.bodyLine(fmt.Sprintf("Status: %s", task.Status))
	p.bodyLine(fmt.Sprintf("Created By: %s", task.CreatedBy))
	p.bodyLine(fmt.Sprintf("Created: %s", task.CreatedAt.Format(timestampLayout)))
	if task.CompletedAt != nil {
		p.bodyLine(fmt.Sprintf("Completed: %s", task.CompletedAt.Format(timestampLayout)))
	}
	p.bodyLine(fmt.Sprintf("Cycle Time: %s", cycleTimeText(task)))
}

func (p *reportPage) updatesSection(updates []models.Update, truncateAt int) {
	p.subheading(fmt.Sprintf("Updates (%d)", len(updates)))
	for _, update := range updates {
		p.bodyLine(fmt.Sprintf("%s - %s (%s): %s",
			update.Timestamp.Format(timestampLayout),
			update.Username,
			update.Role,
			truncate(update.Content, truncateAt),
		))
	}
}

func (p *reportPage) defectsSection(defects []models.Defect) {
	p.subheading(fmt.Sprintf("Defects (%d)", len(defects)))
	for _, defect := range defects {
		line := fmt.Sprintf("%s - Status: %s", defect.DefectID, defect.Status)
		if defect.ResolvedAt != nil {
			line += fmt.Sprintf(" (Resolved: %s)", defect.ResolvedAt.Format(timestampLayout))
		}
		p.bodyLine(line)
	}
}

func (p *reportPage) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate shortens content to at most limit characters. Counting is on
// runes, never bytes; multi-byte characters are kept whole. A limit of zero
// disables truncation.
func truncate(content string, limit int) string {
	if limit <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func cycleTimeText(task *models.Task) string {
	days, ok := task.CycleTimeDays()
	if !ok {
		return "Not completed"
	}
	return fmt.Sprintf("%d days", days)
}
