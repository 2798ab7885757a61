package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/triallog/triallog/internal/store"
)

const maxReportEntries = 20

// RenderPDF produces the patient report as a PDF. The page is assembled from
// raw PDF objects, then run through pdfcpu's read/validate/optimize pass so
// the served artifact is a verified well-formed document.
func RenderPDF(stats Stats, entries []store.Entry) ([]byte, error) {
	lines := reportLines(stats, entries)
	raw := buildPDF("Clinical Trial Report - Patient "+stats.PatientID, lines)

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("validate report pdf: %w", err)
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("write report pdf: %w", err)
	}
	return out.Bytes(), nil
}

func reportLines(stats Stats, entries []store.Entry) []string {
	lines := []string{
		fmt.Sprintf("Total check-ins: %d", stats.TotalEntries),
		fmt.Sprintf("Check-ins with medication taken: %d", stats.EntriesWithMedication),
		fmt.Sprintf("Symptom occurrences: %d", stats.TotalSymptoms),
		fmt.Sprintf("Enrollment span: %d days (%s to %s)",
			stats.EnrollmentDays,
			stats.FirstEntry.Format("2006-01-02"),
			stats.LastEntry.Format("2006-01-02")),
		"",
		"Recent check-ins:",
	}

	n := len(entries)
	if n > maxReportEntries {
		n = maxReportEntries
	}
	for _, e := range entries[:n] {
		summary := e.ClinicalSummary
		if summary == "" {
			summary = truncate(e.Transcript, 80)
		}
		lines = append(lines, fmt.Sprintf("%s  [%s]  %s",
			e.Timestamp.Format("2006-01-02 15:04"), e.AdherenceStatus, truncate(summary, 90)))
	}
	return lines
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// buildPDF writes a minimal single-page PDF: Helvetica text, US Letter,
// one line per entry. Offsets are recorded as objects are emitted so the
// cross-reference table is exact.
func buildPDF(title string, lines []string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 14 Tf\n72 730 Td\n")
	fmt.Fprintf(&content, "(%s) Tj\n", escapePDFText(title))
	content.WriteString("/F1 9 Tf\n0 -28 Td\n12 TL\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFText(line))
	}
	content.WriteString("ET\n")
	stream := content.String()

	var buf bytes.Buffer
	offsets := make([]int, 6)
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	writeObj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	writeObj(5, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString("0000000000 65535 f \n")
	for n := 1; n <= 5; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes()
}

// escapePDFText escapes the characters with meaning inside PDF string
// literals and strips anything outside printable ASCII (the report sticks to
// the base Helvetica encoding).
func escapePDFText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '(', ')':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			if r >= 32 && r < 127 {
				sb.WriteRune(r)
			} else {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}
