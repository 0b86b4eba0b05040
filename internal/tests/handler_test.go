package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"buscontrol/internal/app"
	"buscontrol/internal/handler"
	"buscontrol/internal/service"
)

// ──────────────────────────────────────────────
// 3. HTTP API
// ──────────────────────────────────────────────

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	router *gin.Engine
	repo   *MockTripRecordRepository
	cache  *MockStatisticsCache
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	repo := NewMockTripRecordRepository()
	cache := NewMockStatisticsCache()
	tripService := service.NewTripService(repo, cache)
	reportService := service.NewReportService(repo, cache, NewMockLockStore())

	router := app.NewRouter(app.RouterDeps{
		TripHandler:   handler.NewTripHandler(tripService),
		ReportHandler: handler.NewReportHandler(reportService),
		HealthHandler: handler.NewHealthHandler(tripService),
		FrontendURL:   "http://localhost:3000",
	})

	return &apiFixture{router: router, repo: repo, cache: cache}
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, w.Body)
	}
}

type recordEnvelope struct {
	Success bool                   `json:"success"`
	Data    handler.RecordResponse `json:"data"`
	Message string                 `json:"message"`
	Errors  []string               `json:"errors"`
}

const createBody = `{
	"fechaSalida": "2024-05-03T18:15:00Z",
	"ruta": "Centro - Norte",
	"conductor": "ana gomez",
	"cantidadDinero": 120.5,
	"observaciones": ""
}`

func TestAPI_CreateAndGet(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/rutas", createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}

	var created recordEnvelope
	decode(t, w, &created)
	if !created.Success || created.Data.ID == "" {
		t.Fatalf("unexpected response %+v", created)
	}
	if created.Data.DriverName != "Ana Gomez" || created.Data.AmountCollected != 120.5 {
		t.Errorf("unexpected record %+v", created.Data)
	}
	if created.Data.DepartureTime != "2024-05-03T18:15:00.000Z" || created.Data.Status != "activo" {
		t.Errorf("unexpected record %+v", created.Data)
	}

	w = api.do(http.MethodGet, "/api/rutas/"+created.Data.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got recordEnvelope
	decode(t, w, &got)
	if got.Data.ID != created.Data.ID {
		t.Errorf("expected %s, got %s", created.Data.ID, got.Data.ID)
	}
}

func TestAPI_CreateValidationError(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	w := api.do(http.MethodPost, "/api/rutas", `{"ruta": "", "conductor": "Ana", "cantidadDinero": -5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body)
	}

	var resp recordEnvelope
	decode(t, w, &resp)
	if resp.Success || len(resp.Errors) != 2 {
		t.Errorf("expected two field errors, got %+v", resp)
	}
	if n := api.repo.CountRecords(); n != 0 {
		t.Errorf("expected nothing stored, got %d records", n)
	}
}

func TestAPI_MalformedBody(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	if w := api.do(http.MethodPost, "/api/rutas", `{"ruta": `); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", w.Code)
	}
	if w := api.do(http.MethodPost, "/api/rutas", `{"ruta":"R","conductor":"A","cantidadDinero":1,"fechaSalida":"ayer"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", w.Code)
	}
}

func TestAPI_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	var created recordEnvelope
	decode(t, api.do(http.MethodPost, "/api/rutas", createBody), &created)
	id := created.Data.ID

	w := api.do(http.MethodPut, "/api/rutas/"+id, `{"ruta":"Ruta 7","conductor":"LUIS PEREZ","cantidadDinero":"80.00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var updated recordEnvelope
	decode(t, w, &updated)
	if updated.Data.RouteName != "Ruta 7" || updated.Data.DriverName != "Luis Perez" || updated.Data.AmountCollected != 80 {
		t.Errorf("unexpected update %+v", updated.Data)
	}

	if w := api.do(http.MethodDelete, "/api/rutas/"+id, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := api.do(http.MethodGet, "/api/rutas/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
	if w := api.do(http.MethodPut, "/api/rutas/missing", `{"ruta":"R","conductor":"A","cantidadDinero":1}`); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown record, got %d", w.Code)
	}
}

func TestAPI_ListPagination(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	for _, route := range []string{"Centro", "Norte", "Centro Sur"} {
		body := `{"ruta":"` + route + `","conductor":"Ana","cantidadDinero":10,"fechaSalida":"2024-05-01"}`
		if w := api.do(http.MethodPost, "/api/rutas", body); w.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d %s", w.Code, w.Body)
		}
	}

	w := api.do(http.MethodGet, "/api/rutas?ruta=centro&limit=1&page=1&sort=ruta", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var resp handler.ListResponse
	decode(t, w, &resp)
	if resp.Total != 2 || resp.TotalPages != 2 || resp.Count != 1 || resp.CurrentPage != 1 {
		t.Errorf("unexpected paging %+v", resp)
	}
	if resp.Data[0].RouteName != "Centro" {
		t.Errorf("expected ascending route order, got %s", resp.Data[0].RouteName)
	}

	if w := api.do(http.MethodGet, "/api/rutas?limit=0&sort=estado", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown sort, got %d", w.Code)
	}
	if w := api.do(http.MethodGet, "/api/rutas?page=x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric page, got %d", w.Code)
	}
	if w := api.do(http.MethodGet, "/api/rutas?page=9000000000000000000&limit=500", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an out-of-range page, got %d", w.Code)
	}
}

func TestAPI_Statistics(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	for _, body := range []string{
		`{"ruta":"R1","conductor":"Ana","cantidadDinero":100}`,
		`{"ruta":"R2","conductor":"Ana","cantidadDinero":50}`,
		`{"ruta":"R1","conductor":"Ana","cantidadDinero":50}`,
	} {
		api.do(http.MethodPost, "/api/rutas", body)
	}

	w := api.do(http.MethodGet, "/api/rutas/estadisticas", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Success bool                       `json:"success"`
		Data    handler.StatisticsResponse `json:"data"`
	}
	decode(t, w, &resp)

	if resp.Data.GrandTotal != 200 || resp.Data.RouteCount != 2 {
		t.Errorf("unexpected totals %+v", resp.Data)
	}
	first := resp.Data.ByRoute[0]
	if first.Route != "R1" || first.Total != 150 || first.TripCount != 2 || first.Average != 75 {
		t.Errorf("unexpected first route %+v", first)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"totalGeneral":200`)) {
		t.Errorf("expected numeric totals, got %s", w.Body)
	}
	if !api.cache.Cached() {
		t.Error("expected statistics to be cached")
	}

	api.do(http.MethodPost, "/api/rutas", `{"ruta":"R3","conductor":"Ana","cantidadDinero":500}`)
	if api.cache.Cached() {
		t.Error("expected write to invalidate cached statistics")
	}
}

func TestAPI_EmptyStatistics(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/rutas/estadisticas", "")
	if !bytes.Contains(w.Body.Bytes(), []byte(`"porRuta":[]`)) ||
		!bytes.Contains(w.Body.Bytes(), []byte(`"totalGeneral":0`)) ||
		!bytes.Contains(w.Body.Bytes(), []byte(`"totalRutas":0`)) {
		t.Errorf("unexpected empty statistics %s", w.Body)
	}
}

func TestAPI_Exports(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	api.do(http.MethodPost, "/api/rutas", createBody)

	tests := []struct {
		path        string
		contentType string
		filename    string
		prefix      string
	}{
		{"/api/rutas/export/xml", "application/xml", "rutas_buses_metodo1.xml", "<?xml"},
		{"/api/rutas/export/xml-directo", "application/xml", "rutas_buses_metodo2.xml", "<?xml"},
		{"/api/rutas/export/xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "rutas_buses.xlsx", "PK"},
		{"/api/rutas/estadisticas/pdf", "application/pdf", "estadisticas_rutas.pdf", "%PDF"},
	}

	for _, tt := range tests {
		w := api.do(http.MethodGet, tt.path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", tt.path, w.Code, w.Body)
			continue
		}
		if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
			t.Errorf("%s: unexpected content type %q", tt.path, ct)
		}
		if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="`+tt.filename+`"` {
			t.Errorf("%s: unexpected disposition %q", tt.path, cd)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte(tt.prefix)) {
			t.Errorf("%s: unexpected body start %q", tt.path, w.Body.Bytes()[:8])
		}
	}
}

func TestAPI_ExportFailureIsServerError(t *testing.T) {
	t.Parallel()
	api := newAPI(t)
	api.repo.ListActiveError = errors.New("connection reset")

	w := api.do(http.MethodGet, "/api/rutas/export/xml", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	var resp handler.Response
	decode(t, w, &resp)
	if resp.Success || resp.Error == "" {
		t.Errorf("unexpected error envelope %+v", resp)
	}
}

func TestAPI_Health(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	var resp handler.HealthResponse
	decode(t, api.do(http.MethodGet, "/health", ""), &resp)
	if resp.Status != "OK" || resp.DB != "connected" {
		t.Errorf("unexpected health %+v", resp)
	}

	api.repo.PingError = errors.New("down")
	decode(t, api.do(http.MethodGet, "/health", ""), &resp)
	if resp.DB != "disconnected" {
		t.Errorf("expected disconnected, got %+v", resp)
	}
}
