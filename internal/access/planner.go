// Package access lets a group-responsible user stage access changes for the
// members of their groups and submit them as one batch.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/schedule"
)

var (
	ErrUnknownGroup  = errors.New("unknown group")
	ErrUnknownMember = errors.New("unknown member")
)

// SubmissionError reports a failed batch update. Nothing was applied.
type SubmissionError struct {
	GroupID member.ID
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submitting access for group %s: %v", e.GroupID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Backend is the subset of the backend client the planner needs.
type Backend interface {
	MyGroups(ctx context.Context, userID member.ID) ([]member.Group, error)
	SetAccessBulk(ctx context.Context, ids []member.ID, states []bool) error
}

// Summary describes a successful submission.
type Summary struct {
	GroupID   member.ID
	GroupName string
	// Date is the access day the grants apply to.
	Date    time.Time
	Granted []member.Member
}

// DateLabel renders Date as DD/MM/YYYY.
func (s Summary) DateLabel() string {
	return schedule.FormatDay(s.Date)
}

// Planner holds a responsible user's groups with locally staged access
// flags. It is not safe for concurrent use.
type Planner struct {
	backend    Backend
	userID     member.ID
	recurrence string
	now        func() time.Time

	groups   []member.Group
	baseline map[member.ID]bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithRecurrence sets the access-day recurrence used for summary dates.
func WithRecurrence(r string) Option {
	return func(p *Planner) { p.recurrence = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// NewPlanner creates a Planner for userID.
func NewPlanner(b Backend, userID member.ID, opts ...Option) *Planner {
	p := &Planner{
		backend:    b,
		userID:     userID,
		recurrence: schedule.DefaultRecurrence,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load fetches the user's groups and discards staged changes.
func (p *Planner) Load(ctx context.Context) error {
	groups, err := p.backend.MyGroups(ctx, p.userID)
	if err != nil {
		return err
	}
	p.groups = groups
	p.baseline = make(map[member.ID]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			p.baseline[m.ID] = m.HasAccessToday
		}
	}
	return nil
}

// Groups returns a copy of the groups with staged flags applied.
func (p *Planner) Groups() []member.Group {
	return member.Clone(p.groups)
}

// Toggle flips a member's staged access flag and returns the new value.
func (p *Planner) Toggle(groupID, memberID member.ID) (bool, error) {
	m, err := p.find(groupID, memberID)
	if err != nil {
		return false, err
	}
	m.HasAccessToday = !m.HasAccessToday
	return m.HasAccessToday, nil
}

// Set stages a member's access flag.
func (p *Planner) Set(groupID, memberID member.ID, access bool) error {
	m, err := p.find(groupID, memberID)
	if err != nil {
		return err
	}
	m.HasAccessToday = access
	return nil
}

// Pending returns how many members of the group differ from what was loaded.
func (p *Planner) Pending(groupID member.ID) int {
	g := member.FindGroup(p.groups, groupID)
	if g == nil {
		return 0
	}
	n := 0
	for _, m := range g.Members {
		if p.baseline[m.ID] != m.HasAccessToday {
			n++
		}
	}
	return n
}

// Submit sends every member's staged flag for the group in one batch. On
// success the staged flags become the new baseline.
func (p *Planner) Submit(ctx context.Context, groupID member.ID) (Summary, error) {
	g := member.FindGroup(p.groups, groupID)
	if g == nil {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}

	day, err := schedule.NextAccessDay(p.recurrence, p.now())
	if err != nil {
		return Summary{}, err
	}

	ids := make([]member.ID, len(g.Members))
	states := make([]bool, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
		states[i] = m.HasAccessToday
	}

	if err := p.backend.SetAccessBulk(ctx, ids, states); err != nil {
		slog.Warn("access submission failed", "group_id", groupID.String(), "members", len(ids), "error", err)
		return Summary{}, &SubmissionError{GroupID: groupID, Err: err}
	}

	for _, m := range g.Members {
		p.baseline[m.ID] = m.HasAccessToday
	}
	granted := member.WithAccess(g.Members)
	slog.Info("access submitted", "group_id", groupID.String(), "members", len(ids), "granted", len(granted))

	return Summary{
		GroupID:   g.ID,
		GroupName: g.Name,
		Date:      day,
		Granted:   granted,
	}, nil
}

func (p *Planner) find(groupID, memberID member.ID) (*member.Member, error) {
	g := member.FindGroup(p.groups, groupID)
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}
	for i := range g.Members {
		if g.Members[i].ID == memberID {
			return &g.Members[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
}
