// Package handlers provides HTTP handlers for solar analyses and irradiance data.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/solar-roi/internal/domain"
	"github.com/aristath/solar-roi/internal/modules/analysis"
	"github.com/aristath/solar-roi/internal/modules/irradiance"
	"github.com/rs/zerolog"
)

// Analyzer runs analyses and fetches series
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
	Series(ctx context.Context, req analysis.Request) (*irradiance.Series, error)
}

// Exporter stores CSV exports
type Exporter interface {
	Upload(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
}

// Handler handles analysis HTTP requests
type Handler struct {
	analyzer Analyzer
	exporter Exporter
	log      zerolog.Logger
}

// NewHandler creates a new analysis handler. exporter may be nil when no bucket is configured.
func NewHandler(analyzer Analyzer, exporter Exporter, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		exporter: exporter,
		log:      log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleAnalyze handles GET /api/analysis
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r, true)
	if err != nil {
		h.writeError(w, err)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetIrradiance handles GET /api/irradiance
func (h *Handler) HandleGetIrradiance(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r, false)
	if err != nil {
		h.writeError(w, err)
		return
	}

	smooth := 0
	if raw := r.URL.Query().Get("smooth"); raw != "" {
		smooth, err = strconv.Atoi(raw)
		if err != nil || smooth < 1 {
			h.writeError(w, fmt.Errorf("%w: smooth must be a positive integer", domain.ErrInvalidInput))
			return
		}
	}

	series, err := h.analyzer.Series(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	mean, err := series.Mean()
	if err != nil {
		h.writeError(w, err)
		return
	}

	data := map[string]interface{}{
		"coordinate":     series.Coordinate,
		"range":          series.Range,
		"grid_latitude":  series.GridLatitude,
		"grid_longitude": series.GridLongitude,
		"units":          series.Units,
		"mean":           mean,
		"summary":        series.Summary(),
		"readings":       series.Readings,
	}
	if smooth > 0 {
		data["smoothed"] = series.Smoothed(smooth)
		data["smooth_window"] = smooth
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDownloadCSV handles GET /api/irradiance.csv
func (h *Handler) HandleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r, false)
	if err != nil {
		h.writeError(w, err)
		return
	}

	series, err := h.analyzer.Series(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := series.WriteCSV(&buf); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, csvFileName(req)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV response")
	}
}

// HandleCreateExport handles POST /api/exports
func (h *Handler) HandleCreateExport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorBody("export_unavailable", "no export bucket is configured"))
		return
	}

	req, err := parseRequest(r, false)
	if err != nil {
		h.writeError(w, err)
		return
	}

	series, err := h.analyzer.Series(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := series.WriteCSV(&buf); err != nil {
		h.writeError(w, err)
		return
	}

	name := series.Range.Start.Format(domain.DateLayout) + "_" + series.Range.End.Format(domain.DateLayout) + "/" + csvFileName(req)
	location, err := h.exporter.Upload(r.Context(), name, &buf, "text/csv")
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to upload export")
		h.writeJSON(w, http.StatusBadGateway, errorBody("export_failed", "failed to upload export"))
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"location": location,
			"rows":     len(series.Readings),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// parseRequest reads lat, lon, start and end, plus system_size_kw and rate when withParams.
func parseRequest(r *http.Request, withParams bool) (analysis.Request, error) {
	q := r.URL.Query()
	var req analysis.Request
	var err error

	if req.Latitude, err = requiredFloat(q.Get("lat"), "lat"); err != nil {
		return req, err
	}
	if req.Longitude, err = requiredFloat(q.Get("lon"), "lon"); err != nil {
		return req, err
	}
	if withParams {
		if req.SystemSizeKW, err = requiredFloat(q.Get("system_size_kw"), "system_size_kw"); err != nil {
			return req, err
		}
		if req.ElectricityRate, err = requiredFloat(q.Get("rate"), "rate"); err != nil {
			return req, err
		}
	}
	if req.Start, err = optionalDate(q.Get("start"), "start"); err != nil {
		return req, err
	}
	if req.End, err = optionalDate(q.Get("end"), "end"); err != nil {
		return req, err
	}

	return req, nil
}

func requiredFloat(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, name)
	}
	return v, nil
}

func optionalDate(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, name)
	}
	return &t, nil
}

func csvFileName(req analysis.Request) string {
	return fmt.Sprintf("solar_data_%s_%s.csv",
		strconv.FormatFloat(req.Latitude, 'f', -1, 64),
		strconv.FormatFloat(req.Longitude, 'f', -1, 64))
}

func errorBody(code, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
}

// writeError maps a failure class to its HTTP status
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, errorBody("invalid_input", err.Error()))
	case errors.Is(err, domain.ErrInvalidParameter):
		h.writeJSON(w, http.StatusBadRequest, errorBody("invalid_parameter", err.Error()))
	case errors.Is(err, domain.ErrNoData):
		h.writeJSON(w, http.StatusNotFound, errorBody("no_data",
			"No irradiance data for this location and period. Try a different location or date range."))
	case errors.Is(err, domain.ErrFetch):
		h.log.Warn().Err(err).Msg("Irradiance source unavailable")
		h.writeJSON(w, http.StatusBadGateway, errorBody("fetch_failed",
			"Could not reach the irradiance data source. Check connectivity and retry."))
	default:
		h.log.Error().Err(err).Msg("Analysis failed")
		h.writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
