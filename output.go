package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const (
	labelColumnWidth  = 20
	filesColumnWidth  = 12
	tokensColumnWidth = 16
	sumLabel          = "SUM"
)

// numberPrinter formats integers with thousands separators.
var numberPrinter = message.NewPrinter(language.English)

func formatNumber[T ~int | ~int64](n T) string {
	return numberPrinter.Sprintf("%d", n)
}

// renderReport renders the report in the requested format.
func renderReport(r Report, format string) (string, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding report as json: %w", err)
		}
		return string(out) + "\n", nil
	case "yaml":
		out, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encoding report as yaml: %w", err)
		}
		return string(out), nil
	case "", "table":
		if r.Breakdown {
			return renderTable(r), nil
		}
		return renderTotals(r), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// renderTotals is the plain summary used when no breakdown is requested.
func renderTotals(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total files: %s\n", formatNumber(r.Totals.Files))
	fmt.Fprintf(&b, "Total tokens: %s\n", formatNumber(r.Totals.Tokens))
	return b.String()
}

// renderTable renders one row per label, a separator and a SUM row.
func renderTable(r Report) string {
	header := "Extension"
	if r.GroupBy == "language" {
		header = "Language"
	}

	labelWidth := labelColumnWidth
	for _, row := range r.Rows {
		labelWidth = max(labelWidth, len(row.Label)+1)
	}
	line := func(label, files, tokens string) string {
		return fmt.Sprintf("%-*s%*s%*s\n", labelWidth, label, filesColumnWidth, files, tokensColumnWidth, tokens)
	}

	var b strings.Builder
	b.WriteString(line(header, "Files", "Tokens"))
	for _, row := range r.Rows {
		b.WriteString(line(row.Label, formatNumber(row.Files), formatNumber(row.Tokens)))
	}
	b.WriteString(strings.Repeat("-", labelWidth+filesColumnWidth+tokensColumnWidth))
	b.WriteString("\n")
	b.WriteString(line(sumLabel, formatNumber(r.Totals.Files), formatNumber(r.Totals.Tokens)))
	return b.String()
}

// writeReport sends the report to the configured destination: PDF, file, clipboard, or stdout.
func writeReport(r Report, cfg Config, stdout, stderr io.Writer) error {
	if cfg.PDFFile != "" {
		if err := generatePDF(r, cfg.PDFFile); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Report saved to %s\n", cfg.PDFFile)
		return nil
	}

	finalOutput, err := renderReport(r, cfg.Format)
	if err != nil {
		return err
	}

	switch {
	case cfg.OutFile != "":
		if err := os.WriteFile(cfg.OutFile, []byte(finalOutput), 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", cfg.OutFile, err)
		}
		fmt.Fprintf(stderr, "Output saved to %s\n", cfg.OutFile)
	case cfg.Clipboard:
		if err := clipboard.WriteAll(finalOutput); err != nil {
			fmt.Fprintf(stderr, "Error writing to clipboard: %v\n", err)
			fmt.Fprint(stdout, finalOutput)
		} else {
			fmt.Fprintln(stderr, "Output copied to clipboard.")
		}
	default:
		fmt.Fprint(stdout, finalOutput)
	}
	return nil
}
