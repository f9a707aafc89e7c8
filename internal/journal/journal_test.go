package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flyrell/gatepass/internal/hashutil"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, Entry{At: day.Add(8 * time.Hour), Station: "gate-a", Payload: `{"id":42}`, MemberID: "42", Name: "Sara", Outcome: "granted", Recorded: true}))
	require.NoError(t, s.Append(ctx, Entry{At: day.Add(9 * time.Hour), Station: "gate-a", Payload: "42", MemberID: "42", Name: "Sara", Outcome: "already_entered"}))
	require.NoError(t, s.Append(ctx, Entry{At: day.Add(26 * time.Hour), Station: "gate-a", Payload: "7", MemberID: "7", Outcome: "denied"}))

	got, err := s.List(ctx, day)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "granted", got[0].Outcome)
	assert.True(t, got[0].Recorded)
	assert.Equal(t, member.ID("42"), got[0].MemberID)
	assert.True(t, got[0].At.Equal(day.Add(8*time.Hour)))
	assert.Len(t, got[0].Ref, hashutil.RefLen)
	assert.NotEqual(t, got[0].Ref, got[1].Ref)

	assert.Equal(t, "already_entered", got[1].Outcome)
	assert.False(t, got[1].Recorded)

	next, err := s.List(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "denied", next[0].Outcome)
}

func TestListEmptyDay(t *testing.T) {
	s := openStore(t)

	got, err := s.List(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecorded(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, Entry{At: day.Add(time.Hour), MemberID: "42", Outcome: "granted", Recorded: true}))
	require.NoError(t, s.Append(ctx, Entry{At: day.Add(2 * time.Hour), MemberID: "42", Outcome: "granted", Recorded: true}))
	require.NoError(t, s.Append(ctx, Entry{At: day.Add(3 * time.Hour), MemberID: "43", Outcome: "denied"}))
	require.NoError(t, s.Append(ctx, Entry{At: day.Add(4 * time.Hour), MemberID: "44", Outcome: "granted", Recorded: true}))

	ids, err := s.Recorded(ctx, day)

	require.NoError(t, err)
	assert.Equal(t, []member.ID{"42", "44"}, ids)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")
	ctx := context.Background()
	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, Entry{At: at, MemberID: "1", Outcome: "granted", Recorded: true}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.List(ctx, at)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
