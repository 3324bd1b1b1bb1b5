package analysis

import (
	"context"
	"sync"

	"github.com/aristath/solar-roi/internal/modules/irradiance"
)

// Session remembers the most recent report. Repeating the same request returns the
// remembered report; any change to the inputs recomputes it.
//
// The analysis itself runs outside the lock, so a slow fetch never blocks other callers.
type Session struct {
	service *Service

	mu     sync.Mutex
	key    string
	report *Report
}

// NewSession creates an empty session
func NewSession(service *Service) *Session {
	return &Session{service: service}
}

// Analyze returns the memoized report when the resolved inputs are unchanged.
func (s *Session) Analyze(ctx context.Context, req Request) (*Report, error) {
	in := s.service.Resolve(req)
	key := in.Key()

	if report := s.lookup(key); report != nil {
		return report, nil
	}

	report, err := s.service.analyze(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.key, s.report = "", nil
		return nil, err
	}

	s.key, s.report = key, report
	return report, nil
}

// Series fetches the cleaned series; series requests are not memoized here since the
// provider already caches them.
func (s *Session) Series(ctx context.Context, req Request) (*irradiance.Series, error) {
	return s.service.Series(ctx, req)
}

// Last returns the most recent successful report, or nil.
func (s *Session) Last() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Reset forgets the remembered report.
func (s *Session) Reset() {
	s.mu.Lock()
	s.key, s.report = "", nil
	s.mu.Unlock()
}

func (s *Session) lookup(key string) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report != nil && s.key == key {
		return s.report
	}
	return nil
}
