package irradiance

import (
	"math"
	"time"

	"github.com/aristath/solar-roi/internal/clients/nasapower"
	"github.com/aristath/solar-roi/internal/domain"
	"github.com/rs/zerolog"
)

// Clean maps a raw POWER response onto the requested range. Every day of the range gets
// exactly one reading: fill values, negative or non-finite values and absent days are
// missing, values above MaxPlausibleDaily are suspect. Dates outside the range are dropped.
func Clean(resp *nasapower.DailyResponse, coord domain.Coordinate, dates domain.DateRange, log zerolog.Logger) *Series {
	fill := resp.FillValue

	byDay := make(map[time.Time]float64, len(resp.Values))
	for _, v := range resp.Values {
		day := domain.Day(v.Date)
		if day.Before(dates.Start) || day.After(dates.End) {
			continue
		}
		byDay[day] = v.Value
	}

	series := &Series{
		Coordinate:    coord,
		Range:         dates,
		GridLatitude:  resp.GridLatitude,
		GridLongitude: resp.GridLongitude,
		FillValue:     fill,
		Units:         resp.Units,
		Readings:      make([]Reading, 0, dates.Days()),
	}

	for _, day := range dates.Dates() {
		value, ok := byDay[day]
		reading := Reading{Date: day, Value: value, Status: classify(value, ok, fill)}
		if reading.Status == StatusSuspect {
			log.Warn().
				Str("date", day.Format(domain.DateLayout)).
				Float64("value", value).
				Float64("bound", MaxPlausibleDaily).
				Msg("Excluding implausible irradiance reading")
		}
		series.Readings = append(series.Readings, reading)
	}

	return series
}

func classify(value float64, present bool, fill float64) Status {
	switch {
	case !present:
		return StatusMissing
	case value == fill, math.IsNaN(value), math.IsInf(value, 0), value < 0:
		return StatusMissing
	case value > MaxPlausibleDaily:
		return StatusSuspect
	default:
		return StatusValid
	}
}
