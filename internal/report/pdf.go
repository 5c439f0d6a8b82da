package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/valschmidt/kmall/internal/integrity"
)

// SaveQualityPDF renders the acceptance report into a PDF document.
// fileHash, when non-empty, is stamped onto the page as a QR code so a
// printed report stays tied to the exact file it describes.
func SaveQualityPDF(rep integrity.AcceptanceReport, fileHash, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Survey Line Quality Report", false)
	pdf.SetAuthor("kmallctl", false)
	pdf.SetCreator("kmallctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Survey Line Quality Report")
	addSummarySection(pdf, rep)
	addPingSection(pdf, rep.Ping)
	addNavSection(pdf, rep.Nav)
	addTagSection(pdf, rep.Tags)
	addFindingsSection(pdf, rep.Findings)
	addHashQR(pdf, fileHash)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep integrity.AcceptanceReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "File", value: emptyFallback(rep.Summary.File, "-")},
		{label: "Total Findings", value: strconv.Itoa(rep.Summary.Total)},
		{label: "Errors", value: strconv.Itoa(rep.Summary.Errors)},
		{label: "Warnings", value: strconv.Itoa(rep.Summary.Warnings)},
		{label: "Overall", value: passLabel(rep.Summary.Pass)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addPingSection(pdf *gofpdf.Fpdf, ping integrity.PingReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Ping Completeness")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Pings Observed", value: strconv.Itoa(ping.TotalPings)},
		{label: "Pings Expected", value: strconv.Itoa(ping.ExpectedPings)},
		{label: "Pings Missed", value: strconv.Itoa(ping.PingsMissed)},
		{label: "Missing Fan Records", value: strconv.Itoa(ping.MissingMRZRecords)},
		{label: "Decode Errors", value: strconv.Itoa(ping.DecodeErrors)},
		{label: "Completeness", value: fmt.Sprintf("%.2f%%", ping.PercentComplete)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addNavSection(pdf *gofpdf.Fpdf, nav integrity.NavigationReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Navigation Timing")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Samples", value: strconv.Itoa(nav.Samples)},
		{label: "Min Gap", value: fmt.Sprintf("%.4f s", nav.MinGapSec)},
		{label: "Max Gap", value: fmt.Sprintf("%.4f s", nav.MaxGapSec)},
		{label: "Mean Gap", value: fmt.Sprintf("%.4f s", nav.MeanGapSec)},
		{label: "Std Dev", value: fmt.Sprintf("%.4f s", nav.StdDevSec)},
		{label: "Mean Rate", value: fmt.Sprintf("%.2f Hz", nav.MeanFreqHz)},
		{label: fmt.Sprintf("Gaps >= %.2f s", nav.ThresholdSec), value: strconv.Itoa(nav.GapsOverThreshold)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addTagSection(pdf *gofpdf.Fpdf, tags []integrity.TagCount) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Datagram Inventory")
	pdf.Ln(9)

	headers := []string{"Tag", "Count", "Bytes"}
	widths := []float64{40, 40, 60}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, t := range tags {
		values := []string{t.Tag, strconv.Itoa(t.Count), strconv.FormatInt(t.Bytes, 10)}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addFindingsSection(pdf *gofpdf.Fpdf, findings []integrity.Diagnostic) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(9)

	if len(findings) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No findings recorded.", "", "L", false)
		return
	}

	for i, d := range findings {
		pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, d.CheckID, severityLabel(d.Severity))
		pdf.MultiCell(0, 5, header, "", "L", false)

		if msg := strings.TrimSpace(d.Message); msg != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}

		meta := findingMetadata(d)
		if meta != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, meta, "", "L", false)
		}

		pdf.Ln(2)
	}
}

func addHashQR(pdf *gofpdf.Fpdf, fileHash string) {
	png, err := FileHashToQR(fileHash, 256)
	if err != nil {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("filehash-qr", opts, bytes.NewReader(png))
	pdf.Ln(4)
	pdf.ImageOptions("filehash-qr", pdf.GetX(), pdf.GetY(), 30, 30, true, opts, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 4, "SHA-256: "+strings.TrimSpace(fileHash), "", "L", false)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func severityLabel(sev integrity.Severity) string {
	if s := strings.TrimSpace(string(sev)); s != "" {
		return s
	}
	return "UNKNOWN"
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func findingMetadata(d integrity.Diagnostic) string {
	parts := make([]string, 0, 2)
	if !d.Ts.IsZero() {
		parts = append(parts, d.Ts.Format(time.RFC3339))
	}
	if d.File != "" {
		parts = append(parts, d.File)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " / ")
}
