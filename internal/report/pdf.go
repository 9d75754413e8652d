package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var numberedItem = regexp.MustCompile(`^\d+\.\s`)

// PDF renders the markdown report as a styled PDF document. The
// markdown is produced and consumed in one call, so the layout pass
// never sees partial documents.
func PDF(rc *RenderContext) ([]byte, error) {
	md := Markdown(rc.Analysis)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6,
			fmt.Sprintf("SerpScope | generated %s | page %d", rc.GeneratedAt.Format("2006-01-02 15:04"), pdf.PageNo()),
			"", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	lines := strings.Split(md, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pdf.Ln(2.5)

		case strings.HasPrefix(trimmed, "#"):
			level := 0
			for _, ch := range trimmed {
				if ch != '#' {
					break
				}
				level++
			}
			writeHeading(pdf, tr, strings.TrimSpace(strings.TrimLeft(trimmed, "# ")), level)

		case strings.HasPrefix(trimmed, "|"):
			// Collect the whole table before rendering so column
			// count is known up front.
			var rows [][]string
			for ; i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|"); i++ {
				cells := splitTableRow(lines[i])
				if cells != nil {
					rows = append(rows, cells)
				}
			}
			i--
			writeTable(pdf, tr, rows)

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("• "+stripInline(trimmed[2:])), "", "L", false)

		case numberedItem.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(stripInline(trimmed)), "", "L", false)

		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(stripInline(trimmed)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeading(pdf *gofpdf.Fpdf, tr func(string) string, text string, level int) {
	sizes := map[int]float64{1: 17, 2: 14, 3: 12}
	size, ok := sizes[level]
	if !ok {
		size = 11
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.55, tr(stripInline(text)), "", "L", false)
	pdf.Ln(1.5)
}

// writeTable lays a markdown table out as a grid. The page column gets
// extra width; every other column shares the remainder evenly.
func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	cols := len(rows[0])
	if cols == 0 {
		return
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	widths := make([]float64, cols)
	wide := widestColumn(rows[0])
	base := usable / float64(cols+1)
	for c := range widths {
		widths[c] = base
	}
	widths[wide] = base * 2

	for rowIdx, row := range rows {
		header := rowIdx == 0
		if header {
			pdf.SetFont("Helvetica", "B", 7.5)
			pdf.SetFillColor(226, 232, 240)
		} else {
			pdf.SetFont("Helvetica", "", 7.5)
			pdf.SetFillColor(255, 255, 255)
		}
		for c := 0; c < cols; c++ {
			cell := ""
			if c < len(row) {
				cell = truncate(stripInline(row[c]), 40)
			}
			pdf.CellFormat(widths[c], 6, tr(cell), "1", 0, "L", header, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)
}

// splitTableRow returns the trimmed cells of one markdown table row,
// or nil for separator rows.
func splitTableRow(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	separator := true
	for _, p := range parts {
		cell := strings.TrimSpace(p)
		if strings.Trim(cell, ":-") != "" {
			separator = false
		}
		cells = append(cells, cell)
	}
	if separator {
		return nil
	}
	return cells
}

// widestColumn picks the header cell with the longest text, which in
// practice is the page/title column.
func widestColumn(header []string) int {
	best := 0
	for c, cell := range header {
		if len(cell) > len(header[best]) {
			best = c
		}
	}
	return best
}

// stripInline removes markdown emphasis, code, link, and autolink
// syntax, keeping the readable text.
func stripInline(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = regexp.MustCompile("`([^`]+)`").ReplaceAllString(text, "$1")
	text = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(text, "$1")
	text = regexp.MustCompile(`<(https?://[^>]+)>`).ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
