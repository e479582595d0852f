package infra

// pdf.go — Reorder report generation using go-pdf/fpdf.
// Produces an A4 purchasing report with:
//   - Report header and generation timestamp
//   - Suggestion table (item, on hand, avg daily usage, days left, suggested qty, supplier)
//   - Priority marking for items already at or below their threshold
//
// The output file is saved to storagePath/reorder_{date}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateReorderPDF renders the reorder suggestions into a purchasing report.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateReorderPDF(report *dto.ReorderResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	now := time.Now()
	fileName := fmt.Sprintf("reorder_%s.pdf", now.Format("2006-01-02"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 9, "Reorder Suggestions", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Generated %s — trailing %d day usage window",
			now.Format("02 Jan 2006 15:04"), report.WindowDays),
		"", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Table header ─────────────────────────────────────────────────────────
	col := []float64{
		contentW * 0.26, // item
		contentW * 0.12, // on hand
		contentW * 0.14, // avg daily
		contentW * 0.10, // days left
		contentW * 0.14, // suggested
		contentW * 0.24, // supplier
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	headers := []string{"Item", "On hand", "Avg daily", "Days", "Suggested", "Supplier"}
	aligns := []string{"L", "R", "R", "R", "R", "L"}
	for i, h := range headers {
		last := 0
		if i == len(headers)-1 {
			last = 1
		}
		pdf.CellFormat(col[i], 6, h, "B", last, aligns[i], true, 0, "")
	}

	// ── Rows ─────────────────────────────────────────────────────────────────
	for _, sg := range report.Suggestions {
		if sg.Priority == "high" {
			pdf.SetFont("Helvetica", "B", 8)
		} else {
			pdf.SetFont("Helvetica", "", 8)
		}

		name := sg.Name
		if len(name) > 34 {
			name = name[:33] + "…"
		}
		days := sg.DaysRemaining.StringFixed(1)
		if sg.AvgDailyUsage.IsZero() {
			days = "-"
		}

		pdf.CellFormat(col[0], 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col[1], 6, sg.Quantity.StringFixed(2)+" "+sg.Unit, "", 0, "R", false, 0, "")
		pdf.CellFormat(col[2], 6, sg.AvgDailyUsage.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col[3], 6, days, "", 0, "R", false, 0, "")
		pdf.CellFormat(col[4], 6, sg.SuggestedQty.StringFixed(2)+" "+sg.Unit, "", 0, "R", false, 0, "")
		pdf.CellFormat(col[5], 6, sg.SupplierName, "", 1, "L", false, 0, "")
	}

	if len(report.Suggestions) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(contentW, 8, "No items need reordering.", "", 1, "L", false, 0, "")
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4,
		fmt.Sprintf("%d suggestions. Bold rows are at or below their minimum threshold.", len(report.Suggestions)),
		"", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
