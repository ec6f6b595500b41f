package render

import (
    "errors"
    "strings"

    "github.com/jung-kurt/gofpdf"

    "github.com/hyperifyio/goactions/internal/items"
)

// WritePDF writes the items as a single A4 table. Long actions wrap inside
// their cell; rows grow to the tallest cell.
func WritePDF(list []items.ActionItem, title string, outPath string) error {
    if strings.TrimSpace(outPath) == "" {
        return errors.New("pdf: output path is required")
    }
    pdf := gofpdf.New("P", "mm", "A4", "")
    pdf.SetMargins(15, 15, 15)
    pdf.AddPage()
    tr := pdf.UnicodeTranslatorFromDescriptor("")

    if strings.TrimSpace(title) != "" {
        pdf.SetFont("Helvetica", "B", 14)
        pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
        pdf.Ln(2)
    }

    if len(list) == 0 {
        pdf.SetFont("Helvetica", "", 11)
        pdf.CellFormat(0, 8, EmptyText, "", 1, "L", false, 0, "")
        return pdf.OutputFileAndClose(outPath)
    }

    widths := []float64{110, 40, 30}
    headers := []string{"Action", "Assignee", "Deadline"}
    const lineH = 6.0

    pdf.SetFont("Helvetica", "B", 11)
    pdf.SetFillColor(230, 230, 230)
    for i, h := range headers {
        pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
    }
    pdf.Ln(-1)

    pdf.SetFont("Helvetica", "", 10)
    for _, it := range list {
        cells := []string{tr(it.Action), tr(it.Assignee), tr(it.Deadline)}
        // Row height follows the cell that needs the most lines.
        lines := 1
        for i, c := range cells {
            if n := len(pdf.SplitLines([]byte(c), widths[i]-2)); n > lines {
                lines = n
            }
        }
        rowH := float64(lines) * lineH
        _, pageH := pdf.GetPageSize()
        _, _, _, bottom := pdf.GetMargins()
        if pdf.GetY()+rowH > pageH-bottom {
            pdf.AddPage()
        }
        x, y := pdf.GetXY()
        for i, c := range cells {
            pdf.Rect(x, y, widths[i], rowH, "D")
            pdf.SetXY(x+1, y)
            pdf.MultiCell(widths[i]-2, lineH, c, "", "L", false)
            x += widths[i]
            pdf.SetXY(x, y)
        }
        pdf.SetXY(15, y+rowH)
    }
    return pdf.OutputFileAndClose(outPath)
}
