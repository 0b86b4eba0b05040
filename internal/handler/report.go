package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"buscontrol/internal/domain"
	"buscontrol/internal/report"
	"buscontrol/internal/service"
)

// ReportHandler handles HTTP requests for statistics and exports.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// RouteStatisticResponse is one row of the statistics response.
type RouteStatisticResponse struct {
	Route     string  `json:"ruta"`
	Total     float64 `json:"totalDinero"`
	TripCount int     `json:"cantidadViajes"`
	Average   float64 `json:"promedioDinero"`
}

// StatisticsResponse is the HTTP representation of a statistics summary.
type StatisticsResponse struct {
	ByRoute     []RouteStatisticResponse `json:"porRuta"`
	GrandTotal  float64                  `json:"totalGeneral"`
	RouteCount  int                      `json:"totalRutas"`
	GeneratedAt string                   `json:"fechaGeneracion"`
}

// Statistics handles GET /api/rutas/estadisticas
func (h *ReportHandler) Statistics(c *gin.Context) {
	summary, err := h.reportService.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, NewStatisticsResponse(summary), "")
}

// StatisticsPDF handles GET /api/rutas/estadisticas/pdf
func (h *ReportHandler) StatisticsPDF(c *gin.Context) {
	doc, err := h.reportService.StatisticsReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

// ExportDeclarative handles GET /api/rutas/export/xml
func (h *ReportHandler) ExportDeclarative(c *gin.Context) {
	h.exportXML(c, report.MethodDeclarative)
}

// ExportStructural handles GET /api/rutas/export/xml-directo
func (h *ReportHandler) ExportStructural(c *gin.Context) {
	h.exportXML(c, report.MethodStructural)
}

// ExportSpreadsheet handles GET /api/rutas/export/xlsx
func (h *ReportHandler) ExportSpreadsheet(c *gin.Context) {
	doc, err := h.reportService.ExportSpreadsheet(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

func (h *ReportHandler) exportXML(c *gin.Context, method report.Method) {
	doc, err := h.reportService.ExportXML(c.Request.Context(), string(method))
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

// sendDocument writes doc as an attachment download.
func sendDocument(c *gin.Context, doc *service.Document) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// NewStatisticsResponse maps a summary to its wire shape, amounts as JSON numbers.
func NewStatisticsResponse(s *domain.StatisticsSummary) StatisticsResponse {
	rows := make([]RouteStatisticResponse, 0, len(s.Routes))
	for _, r := range s.Routes {
		rows = append(rows, RouteStatisticResponse{
			Route:     r.RouteName,
			Total:     r.TotalAmount.InexactFloat64(),
			TripCount: r.TripCount,
			Average:   r.AverageAmount.InexactFloat64(),
		})
	}

	return StatisticsResponse{
		ByRoute:     rows,
		GrandTotal:  s.GrandTotal.InexactFloat64(),
		RouteCount:  s.RouteCount,
		GeneratedAt: formatTime(s.GeneratedAt),
	}
}
