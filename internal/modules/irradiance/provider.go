package irradiance

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/solar-roi/internal/clientdata"
	"github.com/aristath/solar-roi/internal/clients/nasapower"
	"github.com/aristath/solar-roi/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultAvailabilityLag is how many days behind today POWER daily data is published.
const DefaultAvailabilityLag = 3

// EarliestDate is the first day of the POWER daily solar record.
var EarliestDate = time.Date(1981, time.January, 1, 0, 0, 0, 0, time.UTC)

// SourceClient is the subset of the NASA POWER client the provider needs.
type SourceClient interface {
	GetDailyIrradiance(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) (*nasapower.DailyResponse, error)
}

// Provider fetches and cleans daily irradiance series, reading through the client data cache.
type Provider struct {
	client          SourceClient
	cache           *clientdata.Repository
	ttl             time.Duration
	availabilityLag int
	now             func() time.Time
	log             zerolog.Logger
}

// ProviderOption customizes the provider
type ProviderOption func(*Provider)

// WithCache enables read-through caching with the given TTL.
func WithCache(cache *clientdata.Repository, ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.cache = cache
		p.ttl = ttl
	}
}

// WithAvailabilityLag sets the number of days before today for which data is assumed published.
func WithAvailabilityLag(days int) ProviderOption {
	return func(p *Provider) {
		p.availabilityLag = days
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a new irradiance provider
func NewProvider(client SourceClient, log zerolog.Logger, opts ...ProviderOption) *Provider {
	p := &Provider{
		client:          client,
		ttl:             clientdata.TTLPowerDaily,
		availabilityLag: DefaultAvailabilityLag,
		now:             time.Now,
		log:             log.With().Str("component", "irradiance_provider").Logger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// LatestAvailable is the last day for which the source is expected to have data.
func (p *Provider) LatestAvailable() time.Time {
	return domain.Day(p.now()).AddDate(0, 0, -p.availabilityLag)
}

// Validate checks a request without touching the network.
func (p *Provider) Validate(coord domain.Coordinate, dates domain.DateRange) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	if err := dates.Validate(); err != nil {
		return err
	}
	if dates.Start.Before(EarliestDate) {
		return fmt.Errorf("%w: start %s precedes the first available day %s", domain.ErrInvalidInput,
			dates.Start.Format(domain.DateLayout), EarliestDate.Format(domain.DateLayout))
	}
	if latest := p.LatestAvailable(); dates.End.After(latest) {
		return fmt.Errorf("%w: end %s is after the latest available day %s", domain.ErrInvalidInput,
			dates.End.Format(domain.DateLayout), latest.Format(domain.DateLayout))
	}
	return nil
}

// Fetch returns the cleaned daily series for a coordinate and inclusive date range.
//
// Errors are classified with domain.ErrInvalidInput (bad request, no network call made),
// domain.ErrFetch (source unreachable or failing) and domain.ErrNoData (no valid reading in
// the window).
func (p *Provider) Fetch(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) (*Series, error) {
	dates = domain.NewDateRange(dates.Start, dates.End)
	if err := p.Validate(coord, dates); err != nil {
		return nil, err
	}

	key := coord.String() + ":" + dates.String()
	series, err := clientdata.Load(ctx, p.cache, clientdata.TablePowerDaily, key, p.ttl,
		func(ctx context.Context) (*Series, error) {
			resp, err := p.client.GetDailyIrradiance(ctx, coord, dates)
			if err != nil {
				return nil, err
			}

			s := Clean(resp, coord, dates, p.log)
			if s.Count(StatusValid) == 0 {
				return nil, fmt.Errorf("%w: no valid readings at %s for %s", domain.ErrNoData, coord, dates)
			}
			return s, nil
		})
	if err != nil {
		p.log.Debug().Err(err).Str("coordinate", coord.String()).Str("range", dates.String()).Msg("Irradiance fetch failed")
		return nil, err
	}

	// the key rounds the coordinate, so a cached entry may carry a nearby caller's value
	series.Coordinate = coord
	series.inUTC()
	return series, nil
}
