package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analysis and irradiance routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analysis", h.HandleAnalyze)

	// Irradiance series
	r.Get("/irradiance", h.HandleGetIrradiance)
	r.Get("/irradiance.csv", h.HandleDownloadCSV)

	// Exports to object storage
	r.Post("/exports", h.HandleCreateExport)
}
