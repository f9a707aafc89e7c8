package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Flyrell/gatepass/internal/backend"
	"github.com/Flyrell/gatepass/internal/journal"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/Flyrell/gatepass/internal/schedule"
)

// Backend is the subset of the backend client the workflow needs.
type Backend interface {
	HasEntered(ctx context.Context, id member.ID) (bool, error)
	Member(ctx context.Context, id member.ID) (member.Member, error)
	RecordEntry(ctx context.Context, id member.ID) error
}

// Journal receives one entry per resolved or failed scan.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) error
}

// Workflow resolves QR payloads into entry decisions.
//
// Entries are recorded automatically: a member with access who has not
// entered yet gets exactly one record call, and is remembered as entered for
// the rest of the local day even if the backend is slow to reflect it.
// Resolves for the same member are serialized.
type Workflow struct {
	backend Backend
	journal Journal
	metrics *metrics.Metrics
	now     func() time.Time
	station string

	mu       sync.Mutex
	locks    map[member.ID]chan struct{}
	recorded map[member.ID]string
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithJournal appends every outcome to j.
func WithJournal(j Journal) Option {
	return func(w *Workflow) { w.journal = j }
}

// WithMetrics counts outcomes and record calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithStation names this scanning station in journal entries.
func WithStation(name string) Option {
	return func(w *Workflow) { w.station = name }
}

// NewWorkflow creates a Workflow backed by b.
func NewWorkflow(b Backend, opts ...Option) *Workflow {
	w := &Workflow{
		backend:  b,
		now:      time.Now,
		locks:    make(map[member.ID]chan struct{}),
		recorded: make(map[member.ID]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MarkRecorded remembers that the members' entries were recorded today,
// typically restored from the journal on startup.
func (w *Workflow) MarkRecorded(ids ...member.ID) {
	day := schedule.DayKey(w.now())
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range ids {
		w.recorded[id] = day
	}
}

// Resolve decodes payload, looks the member up and records their entry if
// they have access and have not entered today. The returned AlreadyEntered is
// the state before this scan.
func (w *Workflow) Resolve(ctx context.Context, payload string) (member.ScanResult, error) {
	id, err := DecodePayload(payload)
	if err != nil {
		w.finish(ctx, payload, member.ScanResult{}, err)
		return member.ScanResult{}, err
	}

	unlock, err := w.lock(ctx, id)
	if err != nil {
		return member.ScanResult{}, err
	}
	defer unlock()

	res, err := w.resolve(ctx, id)
	w.finish(ctx, payload, res, err)
	if err != nil {
		return member.ScanResult{}, err
	}
	return res, nil
}

func (w *Workflow) resolve(ctx context.Context, id member.ID) (member.ScanResult, error) {
	entered, err := w.backend.HasEntered(ctx, id)
	if err != nil {
		return member.ScanResult{MemberID: id}, err
	}

	rec, err := w.backend.Member(ctx, id)
	if err != nil {
		return member.ScanResult{MemberID: id}, err
	}

	res := member.ScanResult{
		MemberID:       id,
		Name:           rec.Name,
		GroupID:        rec.GroupID,
		Access:         rec.HasAccessToday,
		AlreadyEntered: entered || w.recordedToday(id),
	}
	if !res.Access || res.AlreadyEntered {
		return res, nil
	}

	if err := w.backend.RecordEntry(ctx, id); err != nil {
		return member.ScanResult{MemberID: id}, err
	}
	w.MarkRecorded(id)
	w.metrics.EntryRecorded()
	res.Recorded = true
	return res, nil
}

// lock acquires the per-member lock, giving up when ctx is done.
func (w *Workflow) lock(ctx context.Context, id member.ID) (func(), error) {
	w.mu.Lock()
	ch, ok := w.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		w.locks[id] = ch
	}
	w.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Workflow) recordedToday(id member.ID) bool {
	day := schedule.DayKey(w.now())
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recorded[id] == day
}

// finish logs, counts and journals one outcome.
func (w *Workflow) finish(ctx context.Context, payload string, res member.ScanResult, err error) {
	outcome := Outcome(res, err)
	w.metrics.ObserveScan(outcome)

	if err != nil {
		slog.Warn("scan failed", "member_id", res.MemberID.String(), "outcome", outcome, "error", err)
	} else {
		slog.Info("scan resolved",
			"member_id", res.MemberID.String(),
			"access", res.Access,
			"already_entered", res.AlreadyEntered,
			"recorded", res.Recorded,
		)
	}

	if w.journal == nil {
		return
	}
	e := journal.Entry{
		At:       w.now(),
		Station:  w.station,
		Payload:  payload,
		MemberID: res.MemberID,
		Name:     res.Name,
		Outcome:  outcome,
		Recorded: res.Recorded,
	}
	if err != nil {
		e.Error = err.Error()
	}
	// journal even when the screen has already been left
	if jerr := w.journal.Append(context.WithoutCancel(ctx), e); jerr != nil {
		slog.Error("journal append failed", "error", jerr)
	}
}

// Outcome classifies a resolve result for metrics and the journal.
func Outcome(res member.ScanResult, err error) string {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return metrics.ScanMalformed
	case errors.Is(err, backend.ErrMemberNotFound):
		return metrics.ScanNotFound
	case err != nil:
		return metrics.ScanError
	case !res.Access:
		return metrics.ScanDenied
	case res.AlreadyEntered:
		return metrics.ScanDuplicate
	default:
		return metrics.ScanGranted
	}
}
