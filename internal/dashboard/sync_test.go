package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Flyrell/gatepass/internal/backend"
	"github.com/Flyrell/gatepass/internal/backend/backendtest"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	published [][]member.Group
}

func (r *recorder) publish(g []member.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, g)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published)
}

func (r *recorder) last() []member.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published[len(r.published)-1]
}

func groupsWith(entered int) []member.Group {
	return []member.Group{{
		ID:           "1",
		Name:         "Alpha",
		MembersCount: 2,
		AccessToday:  2,
		Entered:      entered,
		Members:      []member.Member{{ID: "42", Name: "Sara", GroupID: "1", HasAccessToday: true, EnteredToday: entered > 0}},
	}}
}

func staticFetcher(groups func() []member.Group) Fetcher {
	return func(context.Context) ([]member.Group, error) { return groups(), nil }
}

func TestPollPublishesOnlyOnChange(t *testing.T) {
	rec := &recorder{}
	current := groupsWith(0)
	s := New(staticFetcher(func() []member.Group { return member.Clone(current) }), rec.publish)
	ctx := context.Background()

	published, err := s.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, published)

	for range 3 {
		published, err = s.Poll(ctx)
		require.NoError(t, err)
		assert.False(t, published)
	}
	assert.Equal(t, 1, rec.count())

	current = groupsWith(1)
	published, err = s.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, 2, rec.count())
	assert.Equal(t, groupsWith(1), rec.last())
}

func TestPollPublishesEmptyListOnce(t *testing.T) {
	rec := &recorder{}
	s := New(staticFetcher(func() []member.Group { return nil }), rec.publish)

	_, _ = s.Poll(context.Background())
	_, _ = s.Poll(context.Background())

	assert.Equal(t, 1, rec.count())
	assert.NotNil(t, rec.last())
}

func TestPollErrorKeepsSnapshot(t *testing.T) {
	rec := &recorder{}
	fail := false
	s := New(func(context.Context) ([]member.Group, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return groupsWith(0), nil
	}, rec.publish)
	ctx := context.Background()

	_, err := s.Poll(ctx)
	require.NoError(t, err)

	fail = true
	_, err = s.Poll(ctx)
	assert.Error(t, err)

	snap, ok := s.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, groupsWith(0), snap)
	assert.Equal(t, 1, rec.count())
}

func TestOutOfOrderCompletionKeepsNewest(t *testing.T) {
	rec := &recorder{}
	releaseA := make(chan struct{})
	var calls atomic.Int32

	s := New(func(ctx context.Context) ([]member.Group, error) {
		if calls.Add(1) == 1 {
			<-releaseA
			return groupsWith(0), nil // A: issued first, completes last
		}
		return groupsWith(1), nil // B
	}, rec.publish)
	ctx := context.Background()

	doneA := make(chan bool)
	go func() {
		published, _ := s.Poll(ctx)
		doneA <- published
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	publishedB, err := s.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, publishedB)

	close(releaseA)
	assert.False(t, <-doneA)

	snap, _ := s.Snapshot()
	assert.Equal(t, groupsWith(1), snap)
	assert.Equal(t, 1, rec.count())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(staticFetcher(func() []member.Group { return groupsWith(0) }), nil)
	_, _ = s.Poll(context.Background())

	snap, _ := s.Snapshot()
	snap[0].Members[0].Name = "changed"

	again, _ := s.Snapshot()
	assert.Equal(t, "Sara", again[0].Members[0].Name)
}

func TestSnapshotBeforeFirstPoll(t *testing.T) {
	s := New(staticFetcher(func() []member.Group { return nil }), nil)

	snap, ok := s.Snapshot()

	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestRunSkipsTicksWhilePollInFlight(t *testing.T) {
	m := metrics.New()
	release := make(chan struct{})
	var calls atomic.Int32
	s := New(func(ctx context.Context) ([]member.Group, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return groupsWith(0), nil
	}, nil, WithInterval(5*time.Millisecond), WithMetrics(m))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "only one poll may be outstanding")

	cancel()
	<-done
	close(release)

	n, err := testutil.GatherAndCount(m.Registry, "gatepass_dashboard_polls_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestRefreshNeverOverlapsRunningPoll(t *testing.T) {
	release := make(chan struct{})
	var calls, active, peak atomic.Int32
	s := New(func(ctx context.Context) ([]member.Group, error) {
		calls.Add(1)
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return groupsWith(0), nil
	}, nil, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			published, err := s.Refresh(ctx)
			assert.NoError(t, err)
			assert.False(t, published)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	require.Eventually(t, func() bool {
		_, _ = s.Refresh(ctx)
		return calls.Load() >= 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), peak.Load(), "at most one fetch may be in flight")

	cancel()
	<-done
}

func TestRefreshPublishesWhenIdle(t *testing.T) {
	rec := &recorder{}
	s := New(staticFetcher(func() []member.Group { return groupsWith(1) }), rec.publish)

	published, err := s.Refresh(context.Background())

	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, 1, rec.count())
}

func TestRunStopsOnCancel(t *testing.T) {
	rec := &recorder{}
	s := New(staticFetcher(func() []member.Group { return groupsWith(0) }), rec.publish, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, rec.count())
}

func TestWithBackendClient(t *testing.T) {
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	srv.AddGroup(backendtest.Group{ID: 1, Name: "Alpha"})
	srv.AddMember(backendtest.Member{ID: 42, Name: "Sara", GroupID: 1, Access: true})

	client := backend.New(srv.URL)
	rec := &recorder{}
	s := New(client.Groups, rec.publish)
	ctx := context.Background()

	_, err := s.Poll(ctx)
	require.NoError(t, err)
	_, err = s.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())

	srv.SetEntered(42, true)
	published, err := s.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, published)
	assert.Equal(t, 1, rec.last()[0].Entered)
}
