package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/solar-roi/internal/domain"
	"github.com/aristath/solar-roi/internal/modules/analysis"
	"github.com/aristath/solar-roi/internal/modules/irradiance"
	"github.com/aristath/solar-roi/internal/modules/roi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Analyzer = (*analysis.Service)(nil)
	_ Analyzer = (*analysis.Session)(nil)
)

type mockAnalyzer struct {
	err     error
	lastReq analysis.Request
}

func testSeries(req analysis.Request) *irradiance.Series {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &irradiance.Series{
		Coordinate: domain.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		Range:      domain.NewDateRange(start, start.AddDate(0, 0, 3)),
	}
	for i, v := range []float64{4, -999, 6, 8} {
		status := irradiance.StatusValid
		if v < 0 {
			status = irradiance.StatusMissing
		}
		s.Readings = append(s.Readings, irradiance.Reading{Date: start.AddDate(0, 0, i), Value: v, Status: status})
	}
	return s
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	payback := 13.45
	return &analysis.Report{
		ID:                "report-1",
		AverageIrradiance: 6,
		ROI:               &roi.Result{ROIPercent: 80.68, PaybackPeriodYears: &payback, PaysBack: true, HorizonYears: 25},
		Series:            testSeries(req),
	}, nil
}

func (m *mockAnalyzer) Series(ctx context.Context, req analysis.Request) (*irradiance.Series, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return testSeries(req), nil
}

type mockExporter struct {
	name string
	body string
	err  error
}

func (m *mockExporter) Upload(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	m.name = name
	data, _ := io.ReadAll(body)
	m.body = string(data)
	if m.err != nil {
		return "", m.err
	}
	return "s3://exports/" + name, nil
}

func setupRouter(analyzer Analyzer, exporter Exporter) http.Handler {
	h := NewHandler(analyzer, exporter, zerolog.Nop())
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleAnalyze(t *testing.T) {
	analyzer := &mockAnalyzer{}
	router := setupRouter(analyzer, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analysis?lat=33.4484&lon=-112.074&system_size_kw=100&rate=0.12&start=2023-01-01&end=2023-12-31", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "report-1", data["id"])
	roiData := data["roi"].(map[string]interface{})
	assert.Equal(t, 13.45, roiData["payback_period_years"])
	assert.Equal(t, true, roiData["pays_back"])

	assert.Equal(t, 100.0, analyzer.lastReq.SystemSizeKW)
	assert.Equal(t, 0.12, analyzer.lastReq.ElectricityRate)
	require.NotNil(t, analyzer.lastReq.Start)
	assert.Equal(t, "2023-12-31", analyzer.lastReq.End.Format(domain.DateLayout))
}

func TestHandleAnalyze_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing lat", "lon=1&system_size_kw=1&rate=0.1"},
		{"bad lon", "lat=1&lon=east&system_size_kw=1&rate=0.1"},
		{"missing rate", "lat=1&lon=1&system_size_kw=1"},
		{"bad date", "lat=1&lon=1&system_size_kw=1&rate=0.1&start=01/01/2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&mockAnalyzer{}, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analysis?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			errBody := body["error"].(map[string]interface{})
			assert.Equal(t, "invalid_input", errBody["code"])
		})
	}
}

func TestHandleAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: latitude", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{fmt.Errorf("%w: size", domain.ErrInvalidParameter), http.StatusBadRequest, "invalid_parameter"},
		{fmt.Errorf("%w: empty", domain.ErrNoData), http.StatusNotFound, "no_data"},
		{fmt.Errorf("%w: 503", domain.ErrFetch), http.StatusBadGateway, "fetch_failed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			router := setupRouter(&mockAnalyzer{err: tt.err}, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analysis?lat=1&lon=1&system_size_kw=1&rate=0.1", nil))

			assert.Equal(t, tt.status, w.Code)
			errBody := decodeBody(t, w)["error"].(map[string]interface{})
			assert.Equal(t, tt.code, errBody["code"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestHandleGetIrradiance(t *testing.T) {
	router := setupRouter(&mockAnalyzer{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/irradiance?lat=10&lon=20&smooth=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 6.0, data["mean"])
	assert.Len(t, data["readings"], 4)
	assert.Len(t, data["smoothed"], 2)

	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, 3.0, summary["valid"])
	assert.Equal(t, 1.0, summary["missing"])
}

func TestHandleGetIrradiance_BadSmooth(t *testing.T) {
	router := setupRouter(&mockAnalyzer{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/irradiance?lat=10&lon=20&smooth=0", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDownloadCSV(t *testing.T) {
	router := setupRouter(&mockAnalyzer{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/irradiance.csv?lat=33.4484&lon=-112.074", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="solar_data_33.4484_-112.074.csv"`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "date,irradiance_kwh_m2_day,status", lines[0])
	assert.Equal(t, "2023-01-02,-999,missing", lines[2])
}

func TestHandleCreateExport(t *testing.T) {
	exporter := &mockExporter{}
	router := setupRouter(&mockAnalyzer{}, exporter)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/exports?lat=1.5&lon=2", nil))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2023-01-01_2023-01-04/solar_data_1.5_2.csv", exporter.name)
	assert.True(t, strings.HasPrefix(exporter.body, "date,irradiance_kwh_m2_day,status\n"))

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "s3://exports/2023-01-01_2023-01-04/solar_data_1.5_2.csv", data["location"])
	assert.Equal(t, 4.0, data["rows"])
}

func TestHandleCreateExport_NotConfigured(t *testing.T) {
	router := setupRouter(&mockAnalyzer{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/exports?lat=1&lon=2", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleCreateExport_UploadFailure(t *testing.T) {
	router := setupRouter(&mockAnalyzer{}, &mockExporter{err: errors.New("denied")})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/exports?lat=1&lon=2", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
