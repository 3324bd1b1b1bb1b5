// Package analysis composes the irradiance provider and the ROI calculator into a single
// synchronous analysis producing a Report.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/solar-roi/internal/domain"
	"github.com/aristath/solar-roi/internal/modules/irradiance"
	"github.com/aristath/solar-roi/internal/modules/roi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SeriesProvider supplies cleaned daily irradiance series
type SeriesProvider interface {
	Validate(coord domain.Coordinate, dates domain.DateRange) error
	Fetch(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) (*irradiance.Series, error)
}

// Request is what a caller asks for. A nil Start or End defaults to the prior calendar year.
type Request struct {
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	SystemSizeKW    float64    `json:"system_size_kw"`
	ElectricityRate float64    `json:"electricity_rate"`
	Start           *time.Time `json:"start,omitempty"`
	End             *time.Time `json:"end,omitempty"`
}

// Input is a Request with defaults applied
type Input struct {
	Coordinate domain.Coordinate    `json:"coordinate"`
	Range      domain.DateRange     `json:"range"`
	Parameters roi.SystemParameters `json:"parameters"`
}

// Key identifies the full input tuple; equal keys produce equal reports.
func (in Input) Key() string {
	return fmt.Sprintf("%s|%s|%v|%v", in.Coordinate, in.Range,
		in.Parameters.SystemSizeKW, in.Parameters.ElectricityRateUSDPerKWh)
}

// Report is the complete outcome of one analysis
type Report struct {
	ID                string             `json:"id"`
	GeneratedAt       time.Time          `json:"generated_at"`
	Input             Input              `json:"input"`
	AverageIrradiance float64            `json:"average_irradiance_kwh_m2_day"`
	Summary           irradiance.Summary `json:"summary"`
	ROI               *roi.Result        `json:"roi"`
	Series            *irradiance.Series `json:"series"`
}

// Service runs analyses
type Service struct {
	provider   SeriesProvider
	calculator *roi.Calculator
	now        func() time.Time
	log        zerolog.Logger
}

// NewService creates a new analysis service
func NewService(provider SeriesProvider, calculator *roi.Calculator, log zerolog.Logger) *Service {
	return &Service{
		provider:   provider,
		calculator: calculator,
		now:        time.Now,
		log:        log.With().Str("service", "analysis").Logger(),
	}
}

// SetClock replaces time.Now, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Resolve applies defaults to a request.
func (s *Service) Resolve(req Request) Input {
	dates := domain.PriorCalendarYear(s.now())
	if req.Start != nil {
		dates.Start = domain.Day(*req.Start)
	}
	if req.End != nil {
		dates.End = domain.Day(*req.End)
	}

	return Input{
		Coordinate: domain.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		Range:      dates,
		Parameters: roi.SystemParameters{
			SystemSizeKW:             req.SystemSizeKW,
			ElectricityRateUSDPerKWh: req.ElectricityRate,
		},
	}
}

// Analyze fetches the series, averages it and projects the ROI.
// Inputs are validated before any network call; no partial report is returned.
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	return s.analyze(ctx, s.Resolve(req))
}

// Series fetches the cleaned series for the request's location and range only.
func (s *Service) Series(ctx context.Context, req Request) (*irradiance.Series, error) {
	in := s.Resolve(req)
	return s.provider.Fetch(ctx, in.Coordinate, in.Range)
}

func (s *Service) analyze(ctx context.Context, in Input) (*Report, error) {
	if err := s.provider.Validate(in.Coordinate, in.Range); err != nil {
		return nil, err
	}
	if err := in.Parameters.Validate(); err != nil {
		return nil, err
	}

	series, err := s.provider.Fetch(ctx, in.Coordinate, in.Range)
	if err != nil {
		return nil, err
	}

	average, err := series.Mean()
	if err != nil {
		return nil, err
	}

	result, err := s.calculator.Calculate(average, in.Parameters)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:                uuid.New().String(),
		GeneratedAt:       s.now().UTC(),
		Input:             in,
		AverageIrradiance: average,
		Summary:           series.Summary(),
		ROI:               result,
		Series:            series,
	}

	s.log.Info().
		Str("report_id", report.ID).
		Str("coordinate", in.Coordinate.String()).
		Str("range", in.Range.String()).
		Float64("average_irradiance", average).
		Float64("roi_percent", result.ROIPercent).
		Bool("pays_back", result.PaysBack).
		Msg("Analysis complete")

	return report, nil
}
