package clientdata

import (
	"github.com/rs/zerolog"
)

// CleanupJob evicts cached irradiance series whose TTL has passed, so the in-memory cache
// only holds data a request could still be served from.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates the cache eviction job for repo.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Run sweeps every table and reports what the cache still holds afterwards.
func (j *CleanupJob) Run() error {
	evicted, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Cache sweep failed")
		return err
	}

	var total int64
	for _, table := range AllTables {
		if n := evicted[table]; n > 0 {
			j.log.Debug().
				Str("table", table).
				Int64("series_evicted", n).
				Msg("Evicted stale irradiance series")
			total += n
		}
	}

	stats := j.repo.Stats()
	event := j.log.Debug()
	if total > 0 {
		event = j.log.Info()
	}
	event.
		Int64("series_evicted", total).
		Int("entries_remaining", stats.Entries).
		Int64("cache_hits", stats.Hits).
		Int64("cache_misses", stats.Misses).
		Int64("upstream_fetches", stats.Fetches).
		Msg("Cache sweep completed")

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "client_data_cleanup"
}
