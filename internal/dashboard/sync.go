// Package dashboard keeps a live projection of every group by polling the
// backend and publishing only when something changed.
package dashboard

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/metrics"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = time.Second

// Fetcher returns the normalized group list.
type Fetcher func(ctx context.Context) ([]member.Group, error)

// Sync polls a Fetcher and publishes changed snapshots.
//
// Each fetch takes an increasing sequence number. A completion older than the
// last applied one is dropped, so the snapshot always reflects the most
// recently issued fetch that has completed.
type Sync struct {
	fetch    Fetcher
	publish  func([]member.Group)
	interval time.Duration
	metrics  *metrics.Metrics

	issued   atomic.Uint64
	inFlight atomic.Bool
	wg       sync.WaitGroup

	mu       sync.Mutex
	applied  uint64
	snapshot []member.Group
	has      bool
}

// Option configures a Sync.
type Option func(*Sync)

// WithInterval sets the poll period.
func WithInterval(d time.Duration) Option {
	return func(s *Sync) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMetrics counts polls and publications.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sync) { s.metrics = m }
}

// New creates a Sync. publish receives a private copy of every changed
// snapshot and is called with the snapshot lock held, so calls never overlap
// and always arrive in snapshot order.
func New(fetch Fetcher, publish func([]member.Group), opts ...Option) *Sync {
	s := &Sync{
		fetch:    fetch,
		publish:  publish,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run polls immediately and then on every tick until ctx is done. A tick that
// fires while the previous scheduled poll is still outstanding is skipped.
// Run waits for outstanding polls before returning.
func (s *Sync) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.wg.Wait()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sync) tick(ctx context.Context) {
	if !s.acquire() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		_, _ = s.Poll(ctx)
	}()
}

// Refresh polls now unless a poll is already outstanding, in which case it
// returns false without fetching. It shares the in-flight guard with Run, so
// at most one fetch is ever running.
func (s *Sync) Refresh(ctx context.Context) (bool, error) {
	if !s.acquire() {
		return false, nil
	}
	defer s.inFlight.Store(false)
	return s.Poll(ctx)
}

func (s *Sync) acquire() bool {
	if s.inFlight.CompareAndSwap(false, true) {
		return true
	}
	s.metrics.ObservePoll(metrics.PollSkipped)
	return false
}

// Poll fetches once and applies the result. It reports whether a new
// snapshot was published. Poll bypasses the in-flight guard; use Refresh
// while Run is active.
func (s *Sync) Poll(ctx context.Context) (bool, error) {
	seq := s.issued.Add(1)

	groups, err := s.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("dashboard poll failed", "seq", seq, "error", err)
			s.metrics.ObservePoll(metrics.PollError)
		}
		return false, err
	}
	if groups == nil {
		groups = []member.Group{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.applied {
		slog.Debug("dropping stale dashboard poll", "seq", seq, "applied", s.applied)
		s.metrics.ObservePoll(metrics.PollStale)
		return false, nil
	}
	s.applied = seq
	s.metrics.ObservePoll(metrics.PollOK)

	if s.has && reflect.DeepEqual(s.snapshot, groups) {
		return false, nil
	}
	s.snapshot = groups
	s.has = true
	if s.publish != nil {
		s.publish(member.Clone(groups))
	}
	s.metrics.Published()
	return true, nil
}

// Snapshot returns a copy of the last published groups and whether any poll
// has succeeded yet.
func (s *Sync) Snapshot() ([]member.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return member.Clone(s.snapshot), s.has
}
