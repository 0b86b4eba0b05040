package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/phpdave11/gofpdf"

	"buscontrol/internal/domain"
)

const (
	// ContentTypePDF is the media type of the statistics report.
	ContentTypePDF = "application/pdf"
	// StatisticsReportFilename is the suggested download name of the report.
	StatisticsReportFilename = "estadisticas_rutas.pdf"
)

// EncodeStatisticsPDF renders a one-table PDF of the statistics summary.
func EncodeStatisticsPDF(summary domain.StatisticsSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Estadisticas por ruta", false)
	pdf.SetCreator(SystemLabel, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Análisis Financiero por Ruta"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	generated := optionalTimestamp(summary.GeneratedAt)
	pdf.Cell(0, 6, tr(CompanyName+" - generado "+generated))
	pdf.Ln(10)

	widths := []float64{80, 35, 30, 35}
	header := []string{"Ruta", "Total", "Viajes", "Promedio"}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, s := range summary.Routes {
		pdf.CellFormat(widths[0], 7, tr(truncate(s.RouteName, 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, FormatAmount(s.TotalAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, strconv.Itoa(s.TripCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, FormatAmount(s.AverageAmount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Total general: %s %s", FormatAmount(summary.GrandTotal), Currency))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Rutas: %d", summary.RouteCount))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("statistics report: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
