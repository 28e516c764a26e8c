package widget

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// #region fakes
type fakeFetcher struct {
	calls   atomic.Int32
	started chan struct{} // receives once per call when non-nil
	release chan struct{} // blocks each call until closed when non-nil
	mu      sync.Mutex
	results []fetchResult // consumed in order; last one repeats
}

type fetchResult struct {
	snap Snapshot
	err  error
}

func (f *fakeFetcher) FetchRisk(ctx context.Context, userID string) (Snapshot, error) {
	n := f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return snapshot(risk.LevelLow), nil
	}
	i := int(n) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].snap, f.results[i].err
}

func snapshot(l risk.Level) Snapshot {
	return Snapshot{Assessment: risk.Assessment{Level: l, Score: 0.5}}
}

// #endregion fakes

func TestRefreshNowCoalescesConcurrentCallers(t *testing.T) {
	f := &fakeFetcher{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New(f, "u1")
	defer c.Teardown()

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	call := func() {
		defer wg.Done()
		_, err := c.RefreshNow(context.Background())
		errs <- err
	}
	wg.Add(1)
	go call()
	<-f.started

	wg.Add(callers - 1)
	for i := 1; i < callers; i++ {
		go call()
	}
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("RefreshNow: %v", err)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
	if st := c.State(); st.Status != StatusReady || st.Seq != 1 {
		t.Errorf("state = %+v", st)
	}
}

func TestRefreshNowJoinsScheduledFetch(t *testing.T) {
	f := &fakeFetcher{started: make(chan struct{}, 64), release: make(chan struct{})}
	c := New(f, "u1", WithInterval(10*time.Millisecond))
	defer c.Teardown()

	// start only the loop so the first fetch comes from a tick
	c.mu.Lock()
	c.initialized = true
	c.wg.Add(1)
	c.mu.Unlock()
	go c.loop()
	<-f.started

	done := make(chan State, 1)
	go func() {
		st, err := c.RefreshNow(context.Background())
		if err != nil {
			t.Errorf("RefreshNow: %v", err)
		}
		done <- st
	}()
	time.Sleep(50 * time.Millisecond)
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("fetch calls while scheduled fetch pending = %d, want 1", got)
	}
	close(f.release)

	if st := <-done; st.Seq != 1 || st.Status != StatusReady {
		t.Errorf("manual refresh should share the scheduled fetch, got %+v", st)
	}
}

func TestOnChangeMayTeardown(t *testing.T) {
	var c *Client
	c = New(&fakeFetcher{}, "u1",
		WithInterval(time.Hour),
		WithOnChange(func(State) { c.Teardown() }),
	)

	done := make(chan error, 1)
	go func() { done <- c.Initialize(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Initialize: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Teardown from the change callback did not return")
	}

	if st := c.State(); st.Status != StatusReady || st.Seq != 1 {
		t.Errorf("state = %+v", st)
	}
	if _, err := c.RefreshNow(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("RefreshNow after callback teardown = %v", err)
	}
}

func TestApplyDropsStaleResult(t *testing.T) {
	c := New(&fakeFetcher{}, "u1")
	defer c.Teardown()

	if _, ok := c.apply(2, snapshot(risk.LevelHigh), nil); !ok {
		t.Fatal("seq 2 should apply")
	}
	if _, ok := c.apply(1, snapshot(risk.LevelMinimal), nil); ok {
		t.Fatal("seq 1 should be dropped after seq 2")
	}
	st := c.State()
	if st.Seq != 2 || st.Last.Assessment.Level != risk.LevelHigh {
		t.Errorf("state = seq %d level %s, want seq 2 high", st.Seq, st.Last.Assessment.Level)
	}
	if _, ok := c.apply(3, Snapshot{}, errors.New("boom")); !ok {
		t.Fatal("seq 3 should apply")
	}
	if st := c.State(); st.Status != StatusError || st.Last.Assessment.Level != risk.LevelHigh {
		t.Errorf("error should keep last assessment, got %+v", st)
	}
}

func TestTeardownBlocksLateResult(t *testing.T) {
	f := &fakeFetcher{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New(f, "u1")

	done := make(chan error, 1)
	go func() {
		_, err := c.RefreshNow(context.Background())
		done <- err
	}()
	<-f.started

	torn := make(chan struct{})
	go func() {
		c.Teardown()
		close(torn)
	}()
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	<-torn

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("in-flight refresh err = %v, want ErrClosed", err)
	}
	st := c.State()
	if st.Status != StatusLoading || st.Last != nil || st.Seq != 0 {
		t.Errorf("state mutated after teardown: %+v", st)
	}
	if _, ok := c.apply(99, snapshot(risk.LevelHigh), nil); ok {
		t.Error("apply after teardown should be refused")
	}
	if _, err := c.RefreshNow(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("RefreshNow after teardown = %v", err)
	}
	if err := c.Initialize(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Initialize after teardown = %v", err)
	}
	c.Teardown()
}

func TestInitializeTwice(t *testing.T) {
	c := New(&fakeFetcher{}, "u1")
	defer c.Teardown()
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c.Initialize(context.Background()); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Initialize = %v", err)
	}
	if st := c.State(); st.Status != StatusReady {
		t.Errorf("status = %s after initial fetch", st.Status)
	}
}

func TestPollingAndFailureRecovery(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{
		{snap: snapshot(risk.LevelModerate)},
		{err: errors.New("connection refused")},
		{err: ErrServiceRejected},
		{snap: snapshot(risk.LevelHigh)},
	}}
	var (
		mu     sync.Mutex
		states []State
	)
	c := New(f, "u1",
		WithInterval(5*time.Millisecond),
		WithOnChange(func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}),
	)
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	observed := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(states)
	}
	deadline := time.Now().Add(2 * time.Second)
	for observed() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Teardown()

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 4 {
		t.Fatalf("observed %d states, want >= 4", len(states))
	}
	if states[0].Status != StatusReady {
		t.Errorf("first = %s", states[0].Status)
	}
	if s := states[1]; s.Status != StatusError || !errors.Is(s.Err, ErrTransport) || s.Last == nil {
		t.Errorf("transport failure state = %+v", s)
	}
	if s := states[2]; !errors.Is(s.Err, ErrServiceRejected) || errors.Is(s.Err, ErrTransport) {
		t.Errorf("rejection state err = %v", s.Err)
	}
	if s := states[3]; s.Status != StatusReady || s.Err != nil || s.Last.Assessment.Level != risk.LevelHigh {
		t.Errorf("recovered state = %+v", s)
	}
	for i := 1; i < len(states); i++ {
		if states[i].Seq <= states[i-1].Seq {
			t.Errorf("sequence not increasing at %d: %d after %d", i, states[i].Seq, states[i-1].Seq)
		}
	}
}

func TestRefreshNowHonoursCallerContext(t *testing.T) {
	f := &fakeFetcher{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := New(f, "u1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	go func() { <-f.started }()
	if _, err := c.RefreshNow(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	close(f.release)
	c.Teardown()
}
