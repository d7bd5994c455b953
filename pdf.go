package main

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 15
	pdfLineHeight = 6
	pdfFontSize   = 10
)

// generatePDF writes the report as a one-table PDF document.
func generatePDF(r Report, outputPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", pdfFontSize+4)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight+2, "Token report", "", "L", false)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight,
		fmt.Sprintf("Directory: %s\nModel: %s (%s)", r.Root, r.Model, r.Encoding), "", "L", false)
	pdf.Ln(pdfLineHeight)

	usable := float64(pdfPageWidth - 2*pdfMargin)
	labelW, filesW, tokensW := usable*0.5, usable*0.2, usable*0.3
	row := func(label, files, tokens, border string) {
		pdf.CellFormat(labelW, pdfLineHeight, label, border, 0, "L", false, 0, "")
		pdf.CellFormat(filesW, pdfLineHeight, files, border, 0, "R", false, 0, "")
		pdf.CellFormat(tokensW, pdfLineHeight, tokens, border, 1, "R", false, 0, "")
	}

	header := "Extension"
	if r.GroupBy == "language" {
		header = "Language"
	}
	pdf.SetFont("Courier", "B", pdfFontSize)
	row(header, "Files", "Tokens", "B")
	pdf.SetFont("Courier", "", pdfFontSize)
	for _, s := range r.Rows {
		row(s.Label, formatNumber(s.Files), formatNumber(s.Tokens), "")
	}
	pdf.SetFont("Courier", "B", pdfFontSize)
	row(sumLabel, formatNumber(r.Totals.Files), formatNumber(r.Totals.Tokens), "T")

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}
	return nil
}
