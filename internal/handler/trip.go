package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"buscontrol/internal/domain"
	"buscontrol/internal/report"
	"buscontrol/internal/repository"
	"buscontrol/internal/service"
)

var errBadRequest = errors.New("bad request")

// dateLayouts are the accepted forms of dates in requests.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TripHandler handles HTTP requests for trip records.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// RecordRequest is the HTTP request body for record writes.
type RecordRequest struct {
	DepartureTime   string           `json:"fechaSalida"`
	RouteName       string           `json:"ruta"`
	DriverName      string           `json:"conductor"`
	AmountCollected *decimal.Decimal `json:"cantidadDinero"`
	Notes           string           `json:"observaciones"`
	Status          string           `json:"estado"`
}

// RecordResponse is the HTTP representation of a trip record.
type RecordResponse struct {
	ID              string  `json:"_id"`
	DepartureTime   string  `json:"fechaSalida"`
	RouteName       string  `json:"ruta"`
	DriverName      string  `json:"conductor"`
	AmountCollected float64 `json:"cantidadDinero"`
	Notes           string  `json:"observaciones,omitempty"`
	Status          string  `json:"estado"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// ListResponse is the HTTP response for record listings.
type ListResponse struct {
	Success     bool             `json:"success"`
	Count       int              `json:"count"`
	Total       int              `json:"total"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Data        []RecordResponse `json:"data"`
}

// List handles GET /api/rutas
func (h *TripHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.tripService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]RecordResponse, 0, len(page.Records))
	for i := range page.Records {
		data = append(data, toRecordResponse(&page.Records[i]))
	}

	respondJSON(c, http.StatusOK, ListResponse{
		Success:     true,
		Count:       len(data),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Data:        data,
	})
}

// Create handles POST /api/rutas
func (h *TripHandler) Create(c *gin.Context) {
	input, err := bindRecord(c)
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := h.tripService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toRecordResponse(record), "Ruta creada exitosamente")
}

// Get handles GET /api/rutas/:id
func (h *TripHandler) Get(c *gin.Context) {
	record, err := h.tripService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toRecordResponse(record), "")
}

// Update handles PUT /api/rutas/:id
func (h *TripHandler) Update(c *gin.Context) {
	input, err := bindRecord(c)
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := h.tripService.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toRecordResponse(record), "Ruta actualizada exitosamente")
}

// Delete handles DELETE /api/rutas/:id
func (h *TripHandler) Delete(c *gin.Context) {
	if err := h.tripService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, nil, "Ruta eliminada exitosamente (borrado lógico)")
}

func bindRecord(c *gin.Context) (service.RecordInput, error) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.RecordInput{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	input := service.RecordInput{
		RouteName:       req.RouteName,
		DriverName:      req.DriverName,
		AmountCollected: req.AmountCollected,
		Notes:           req.Notes,
		Status:          domain.RecordStatus(req.Status),
	}

	if req.DepartureTime != "" {
		t, err := parseDate(req.DepartureTime)
		if err != nil {
			return service.RecordInput{}, fmt.Errorf("%w: fechaSalida: %v", errBadRequest, err)
		}
		input.DepartureTime = &t
	}

	return input, nil
}

func parseFilter(c *gin.Context) (repository.TripFilter, error) {
	filter := repository.TripFilter{
		RouteName:  strings.TrimSpace(c.Query("ruta")),
		DriverName: strings.TrimSpace(c.Query("conductor")),
		Sort:       mapSort(c.Query("sort")),
	}

	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	if v := c.Query("fechaInicio"); v != "" {
		if filter.From, err = parseDate(v); err != nil {
			return filter, fmt.Errorf("%w: fechaInicio: %v", errBadRequest, err)
		}
	}
	if v := c.Query("fechaFin"); v != "" {
		if filter.To, err = parseDate(v); err != nil {
			return filter, fmt.Errorf("%w: fechaFin: %v", errBadRequest, err)
		}
	}

	return filter, nil
}

// wireSortKeys translates wire field names to listing sort keys.
var wireSortKeys = map[string]string{
	"fechaSalida":    "departureTime",
	"ruta":           "routeName",
	"conductor":      "driverName",
	"cantidadDinero": "amountCollected",
}

// mapSort accepts both wire and internal sort names, keeping a leading "-".
func mapSort(s string) string {
	desc := strings.HasPrefix(s, "-")
	key := strings.TrimPrefix(s, "-")
	if mapped, ok := wireSortKeys[key]; ok {
		key = mapped
	}
	if key == "" {
		return ""
	}
	if desc {
		return "-" + key
	}
	return key
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func toRecordResponse(r *domain.TripRecord) RecordResponse {
	return RecordResponse{
		ID:              r.ID,
		DepartureTime:   formatTime(r.DepartureTime),
		RouteName:       r.RouteName,
		DriverName:      r.DriverName,
		AmountCollected: r.AmountCollected.InexactFloat64(),
		Notes:           r.Notes,
		Status:          string(r.Status),
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(report.TimestampLayout)
}
