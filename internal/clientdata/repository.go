// Package clientdata provides a short-lived in-memory cache for external API client responses.
// Values are stored as msgpack blobs with expiration timestamps, so every reader decodes its
// own copy and no two callers share mutable data.
package clientdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// AllTables lists all cache namespaces for cleanup operations.
var AllTables = []string{
	TablePowerDaily,
}

// TablePowerDaily holds cleaned NASA POWER daily irradiance series.
const TablePowerDaily = "power_daily"

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Fetches   int64 `json:"fetches"`
	Coalesced int64 `json:"coalesced"`
}

// Repository provides cache operations for client data.
type Repository struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	now     func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	fetches   atomic.Int64
	coalesced atomic.Int64
}

// NewRepository creates a new client data repository.
func NewRepository() *Repository {
	return &Repository{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// validateTable ensures the table name is in our allowed list.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

func entryKey(table, key string) string {
	return table + ":" + key
}

// Store saves data with expiration = now + ttl.
// A non-positive ttl disables caching and Store is a no-op.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	r.storeBlob(table, key, blob, ttl)
	return nil
}

func (r *Repository) storeBlob(table, key string, blob []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	r.mu.Lock()
	r.entries[entryKey(table, key)] = entry{data: blob, expiresAt: r.now().Add(ttl)}
	r.mu.Unlock()
}

// GetIfFresh decodes the entry into dest only if it has not expired.
// Returns false when the key doesn't exist or the data is expired.
// Use Get() to retrieve stale data as a fallback when API calls fail.
func (r *Repository) GetIfFresh(table, key string, dest interface{}) (bool, error) {
	return r.get(table, key, dest, true)
}

// Get decodes the entry into dest regardless of expiration status.
func (r *Repository) Get(table, key string, dest interface{}) (bool, error) {
	return r.get(table, key, dest, false)
}

func (r *Repository) get(table, key string, dest interface{}, freshOnly bool) (bool, error) {
	if err := validateTable(table); err != nil {
		return false, err
	}

	r.mu.RLock()
	e, ok := r.entries[entryKey(table, key)]
	r.mu.RUnlock()

	if !ok || (freshOnly && !r.now().Before(e.expiresAt)) {
		r.misses.Add(1)
		return false, nil
	}

	if err := msgpack.Unmarshal(e.data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s entry: %w", table, err)
	}

	r.hits.Add(1)
	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, key string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.entries, entryKey(table, key))
	r.mu.Unlock()

	return nil
}

// DeleteExpired removes all entries of a table whose expiry has passed.
// Returns the number of entries deleted.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	prefix := table + ":"
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for k, e := range r.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix && !now.Before(e.expiresAt) {
			delete(r.entries, k)
			deleted++
		}
	}

	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of entries deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, fmt.Errorf("failed to delete expired from %s: %w", table, err)
		}
		results[table] = deleted
	}

	return results, nil
}

// Stats returns a snapshot of the cache counters.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	entries := len(r.entries)
	r.mu.RUnlock()

	return Stats{
		Entries:   entries,
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Fetches:   r.fetches.Load(),
		Coalesced: r.coalesced.Load(),
	}
}

// Load is a read-through lookup. A fresh entry is decoded and returned; otherwise fetch is
// called and its result stored for ttl. Concurrent loads of the same key share a single
// fetch. Failed or cancelled fetches are never stored.
//
// repo may be nil, in which case Load simply calls fetch.
func Load[T any](ctx context.Context, repo *Repository, table, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if repo == nil {
		return fetch(ctx)
	}

	var cached T
	if ok, err := repo.GetIfFresh(table, key, &cached); err != nil {
		return zero, err
	} else if ok {
		return cached, nil
	}

	for {
		ch := repo.group.DoChan(entryKey(table, key), func() (interface{}, error) {
			repo.fetches.Add(1)
			value, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			blob, err := msgpack.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal data: %w", err)
			}
			repo.storeBlob(table, key, blob, ttl)
			return blob, nil
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Shared {
				repo.coalesced.Add(1)
			}
			if res.Err != nil {
				// the shared fetch belonged to a caller that gave up; this caller has not
				if res.Shared && ctx.Err() == nil && isContextError(res.Err) {
					continue
				}
				return zero, res.Err
			}

			var out T
			if err := msgpack.Unmarshal(res.Val.([]byte), &out); err != nil {
				return zero, fmt.Errorf("failed to decode %s entry: %w", table, err)
			}
			return out, nil
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
