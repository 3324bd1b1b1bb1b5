package irradiance

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/solar-roi/internal/clientdata"
	"github.com/aristath/solar-roi/internal/clients/nasapower"
	"github.com/aristath/solar-roi/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls  int32
	values []float64
	err    error
}

func (f *fakeSource) GetDailyIrradiance(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) (*nasapower.DailyResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}

	resp := &nasapower.DailyResponse{FillValue: nasapower.DefaultFillValue}
	for i, v := range f.values {
		resp.Values = append(resp.Values, nasapower.DailyValue{Date: dates.Start.AddDate(0, 0, i), Value: v})
	}
	return resp, nil
}

func fixedClock() time.Time {
	return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
}

var phoenix = domain.Coordinate{Latitude: 33.4484, Longitude: -112.0740}

func TestProvider_FetchComputesMeanOverValidDays(t *testing.T) {
	source := &fakeSource{values: []float64{5, -999, 7}}
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock))

	s, err := p.Fetch(context.Background(), phoenix, domain.NewDateRange(day("2023-01-01"), day("2023-01-03")))
	require.NoError(t, err)

	require.Len(t, s.Readings, 3)
	mean, err := s.Mean()
	require.NoError(t, err)
	assert.Equal(t, 6.0, mean)
}

func TestProvider_MissingDaysAreFlagged(t *testing.T) {
	source := &fakeSource{values: []float64{5}}
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock))

	s, err := p.Fetch(context.Background(), phoenix, domain.NewDateRange(day("2023-01-01"), day("2023-01-10")))
	require.NoError(t, err)
	assert.Len(t, s.Readings, 10)
	assert.Equal(t, 9, s.Count(StatusMissing))
}

func TestProvider_RejectsInvalidRequestsWithoutFetching(t *testing.T) {
	tests := []struct {
		name  string
		coord domain.Coordinate
		dates domain.DateRange
	}{
		{"latitude", domain.Coordinate{Latitude: 91}, domain.NewDateRange(day("2023-01-01"), day("2023-01-02"))},
		{"longitude", domain.Coordinate{Longitude: -181}, domain.NewDateRange(day("2023-01-01"), day("2023-01-02"))},
		{"reversed", phoenix, domain.NewDateRange(day("2023-02-01"), day("2023-01-01"))},
		{"before record", phoenix, domain.NewDateRange(day("1980-12-31"), day("1981-01-05"))},
		{"too recent", phoenix, domain.NewDateRange(day("2024-06-01"), day("2024-06-13"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{values: []float64{5}}
			p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock))

			_, err := p.Fetch(context.Background(), tt.coord, tt.dates)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, int32(0), atomic.LoadInt32(&source.calls))
		})
	}
}

func TestProvider_LatestAvailableHonorsLag(t *testing.T) {
	p := NewProvider(&fakeSource{}, zerolog.Nop(), WithClock(fixedClock), WithAvailabilityLag(5))
	assert.Equal(t, day("2024-06-10"), p.LatestAvailable())
	assert.NoError(t, p.Validate(phoenix, domain.NewDateRange(day("2024-06-01"), day("2024-06-10"))))
}

func TestProvider_NoValidReadings(t *testing.T) {
	source := &fakeSource{values: []float64{-999, -999, 20}}
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock))

	_, err := p.Fetch(context.Background(), phoenix, domain.NewDateRange(day("2023-01-01"), day("2023-01-03")))
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestProvider_PropagatesFetchErrors(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("%w: API returned status 503", domain.ErrFetch)}
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock))

	_, err := p.Fetch(context.Background(), phoenix, domain.NewDateRange(day("2023-01-01"), day("2023-01-03")))
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.False(t, errors.Is(err, domain.ErrNoData))
}

func TestProvider_ReadsThroughCache(t *testing.T) {
	source := &fakeSource{values: []float64{4, 6}}
	cache := clientdata.NewRepository()
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock), WithCache(cache, time.Hour))
	dates := domain.NewDateRange(day("2023-01-01"), day("2023-01-02"))

	first, err := p.Fetch(context.Background(), phoenix, dates)
	require.NoError(t, err)
	second, err := p.Fetch(context.Background(), phoenix, dates)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	assert.Equal(t, first.Readings, second.Readings)
	assert.Equal(t, time.UTC, second.Readings[0].Date.Location())

	// a different range is a different key
	_, err = p.Fetch(context.Background(), phoenix, domain.NewDateRange(day("2023-01-01"), day("2023-01-03")))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}

func TestProvider_CacheHitReportsCallerCoordinate(t *testing.T) {
	source := &fakeSource{values: []float64{4, 6}}
	cache := clientdata.NewRepository()
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock), WithCache(cache, time.Hour))
	dates := domain.NewDateRange(day("2023-01-01"), day("2023-01-02"))

	tests := []struct {
		name  string
		coord domain.Coordinate
	}{
		{"first caller", domain.Coordinate{Latitude: 33.44844, Longitude: -112.074}},
		{"same rounded key", domain.Coordinate{Latitude: 33.44836, Longitude: -112.074}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := p.Fetch(context.Background(), tt.coord, dates)
			require.NoError(t, err)
			assert.Equal(t, tt.coord, series.Coordinate)
		})
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
}

func TestProvider_FailuresAreNotCached(t *testing.T) {
	source := &fakeSource{err: fmt.Errorf("%w: timeout", domain.ErrFetch)}
	cache := clientdata.NewRepository()
	p := NewProvider(source, zerolog.Nop(), WithClock(fixedClock), WithCache(cache, time.Hour))
	dates := domain.NewDateRange(day("2023-01-01"), day("2023-01-02"))

	_, err := p.Fetch(context.Background(), phoenix, dates)
	require.Error(t, err)

	source.err = nil
	source.values = []float64{5, 5}
	s, err := p.Fetch(context.Background(), phoenix, dates)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count(StatusValid))
	assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
}
