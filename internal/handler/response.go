package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"buscontrol/internal/report"
	"buscontrol/internal/repository"
	"buscontrol/internal/service"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	resp := Response{
		Success: false,
		Message: errorMessage(code),
		Error:   err.Error(),
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Fields
		resp.Error = ""
	}
	if report.IsSerialization(err) {
		resp.Message = "Error al generar la exportación"
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondData sends a successful envelope around data.
func respondData(c *gin.Context, code int, data any, message string) {
	respondJSON(c, code, Response{Success: true, Data: data, Message: message})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var verr *service.ValidationError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRecordNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.As(err, &verr),
		errors.Is(err, errBadRequest),
		errors.Is(err, repository.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidRecordID),
		errors.Is(err, service.ErrInvalidExportMethod):
		return http.StatusBadRequest

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(code int) string {
	switch code {
	case http.StatusNotFound:
		return "Ruta no encontrada"
	case http.StatusBadRequest:
		return "Error de validación"
	default:
		return "Error interno del servidor"
	}
}
