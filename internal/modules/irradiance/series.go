// Package irradiance turns raw NASA POWER daily series into cleaned, day-complete irradiance
// series and reduces them to the average the ROI calculator consumes.
package irradiance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aristath/solar-roi/internal/domain"
	"github.com/aristath/solar-roi/pkg/formulas"
)

// Status classifies a daily reading.
type Status string

const (
	// StatusValid readings feed the mean.
	StatusValid Status = "valid"
	// StatusMissing marks fill values, negative values and days absent from the response.
	StatusMissing Status = "missing"
	// StatusSuspect marks values above the plausibility bound.
	StatusSuspect Status = "suspect"
)

// MaxPlausibleDaily is the upper bound for daily surface irradiance, kWh/m²/day.
const MaxPlausibleDaily = 15.0

// Reading is one day of the series. Value keeps what the source delivered, even when the
// reading is excluded; it is zero for days the source did not return at all.
type Reading struct {
	Date   time.Time `json:"date" msgpack:"date"`
	Value  float64   `json:"value" msgpack:"value"`
	Status Status    `json:"status" msgpack:"status"`
}

// Series is a cleaned daily irradiance series with exactly one reading per requested day.
type Series struct {
	Coordinate    domain.Coordinate `json:"coordinate" msgpack:"coordinate"`
	Range         domain.DateRange  `json:"range" msgpack:"range"`
	GridLatitude  float64           `json:"grid_latitude" msgpack:"grid_latitude"`
	GridLongitude float64           `json:"grid_longitude" msgpack:"grid_longitude"`
	FillValue     float64           `json:"fill_value" msgpack:"fill_value"`
	Units         string            `json:"units" msgpack:"units"`
	Readings      []Reading         `json:"readings" msgpack:"readings"`
}

// Summary describes the series without the individual readings.
type Summary struct {
	Days    int     `json:"days"`
	Valid   int     `json:"valid"`
	Missing int     `json:"missing"`
	Suspect int     `json:"suspect"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}

// ValidValues returns the values of valid readings in date order.
func (s *Series) ValidValues() []float64 {
	values := make([]float64, 0, len(s.Readings))
	for _, r := range s.Readings {
		if r.Status == StatusValid {
			values = append(values, r.Value)
		}
	}
	return values
}

// Mean is the arithmetic mean over valid readings.
// Returns domain.ErrNoData when the series has none.
func (s *Series) Mean() (float64, error) {
	values := s.ValidValues()
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no valid readings for %s", domain.ErrNoData, s.Range)
	}
	return formulas.Mean(values), nil
}

// Count returns the number of readings with the given status.
func (s *Series) Count(status Status) int {
	n := 0
	for _, r := range s.Readings {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Summary computes counts and descriptive statistics over valid readings.
func (s *Series) Summary() Summary {
	values := s.ValidValues()
	lo, hi := formulas.MinMax(values)

	return Summary{
		Days:    len(s.Readings),
		Valid:   len(values),
		Missing: s.Count(StatusMissing),
		Suspect: s.Count(StatusSuspect),
		Mean:    formulas.Mean(values),
		Min:     lo,
		Max:     hi,
		StdDev:  formulas.StdDev(values),
	}
}

// SmoothedPoint is one value of a rolling average, dated at the last day of its window.
type SmoothedPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Smoothed returns the rolling simple moving average of the valid readings.
// Excluded days are skipped, not treated as zero. Returns nil when there are fewer valid
// readings than the window.
func (s *Series) Smoothed(window int) []SmoothedPoint {
	var dates []time.Time
	var values []float64
	for _, r := range s.Readings {
		if r.Status == StatusValid {
			dates = append(dates, r.Date)
			values = append(values, r.Value)
		}
	}

	sma := formulas.RollingSMA(values, window)
	if sma == nil {
		return nil
	}

	points := make([]SmoothedPoint, len(sma))
	for i, v := range sma {
		points[i] = SmoothedPoint{Date: dates[i+window-1], Value: v}
	}
	return points
}

// inUTC pins every date to UTC; decoded cache entries come back in the local zone.
func (s *Series) inUTC() {
	s.Range = domain.DateRange{Start: s.Range.Start.UTC(), End: s.Range.End.UTC()}
	for i := range s.Readings {
		s.Readings[i].Date = s.Readings[i].Date.UTC()
	}
}

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{"date", "irradiance_kwh_m2_day", "status"}

// WriteCSV writes one row per day. Days the source never returned have an empty value.
func (s *Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range s.Readings {
		value := strconv.FormatFloat(r.Value, 'f', -1, 64)
		if r.Status == StatusMissing && r.Value == 0 {
			value = ""
		}
		if err := cw.Write([]string{r.Date.Format(domain.DateLayout), value, string(r.Status)}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
