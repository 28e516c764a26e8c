package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

var (
	ErrAlreadyInitialized = errors.New("widget: already initialized")
	ErrClosed             = errors.New("widget: torn down")
	ErrServiceRejected    = errors.New("widget: risk service rejected request")
	ErrTransport          = errors.New("widget: transport failure")
)

// DefaultInterval is the background polling period.
const DefaultInterval = 5 * time.Minute

// flightKey is shared by polling and manual refresh so both coalesce.
const flightKey = "risk"

// #region state
// Status is the client's display phase.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Snapshot is one successful response from the risk service.
type Snapshot struct {
	Assessment            risk.Assessment
	InterventionTriggered bool
	Message               string // set when the service has no assessment yet
}

// State is the single value a rendering surface reads.
type State struct {
	Status        Status
	Last          *Snapshot // retained across failures
	LastFetchedAt time.Time
	Err           error
	Seq           uint64 // sequence of the fetch that produced this state
}

// Fetcher retrieves the current risk snapshot for a user.
type Fetcher interface {
	FetchRisk(ctx context.Context, userID string) (Snapshot, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, userID string) (Snapshot, error)

// FetchRisk implements Fetcher.
func (f FetcherFunc) FetchRisk(ctx context.Context, userID string) (Snapshot, error) {
	return f(ctx, userID)
}

// #endregion state

// #region options
// Option configures a Client.
type Option func(*Client)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides the time source used for LastFetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnChange registers a callback run after every applied state. The callback
// runs outside the client's wait group, so it may call Teardown; a concurrent
// Teardown does not wait for a callback that is already running.
func WithOnChange(fn func(State)) Option {
	return func(c *Client) { c.onChange = fn }
}

// #endregion options

// #region client
// Client polls a Fetcher and keeps one consistent State. All fetches go
// through a single coordinator: concurrent refreshes share one request, each
// request takes the next sequence number when issued, and a result older than
// the last applied one is dropped.
type Client struct {
	fetcher  Fetcher
	userID   string
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	onChange func(State)

	flights singleflight.Group
	life    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu          sync.Mutex
	state       State
	issued      uint64
	initialized bool
	closed      bool
}

// New builds an idle client. Call Initialize to start polling.
func New(fetcher Fetcher, userID string, opts ...Option) *Client {
	c := &Client{
		fetcher:  fetcher,
		userID:   userID,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   zap.NewNop(),
		state:    State{Status: StatusLoading},
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.Named("widget").With(zap.String("user", userID))
	c.life, c.cancel = context.WithCancel(context.Background())
	return c
}

// State returns the current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Initialize starts the polling loop and performs the first fetch. It returns
// the first fetch's error; polling continues either way.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.initialized:
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.initialized = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.loop()
	c.logger.Debug("polling started", zap.Duration("interval", c.interval))

	_, err := c.RefreshNow(ctx)
	return err
}

// RefreshNow fetches out of band. If a fetch is already in flight the caller
// waits for that one instead of issuing another. ctx bounds only the wait.
func (c *Client) RefreshNow(ctx context.Context) (State, error) {
	if c.isClosed() {
		return c.State(), ErrClosed
	}
	ch := c.flights.DoChan(flightKey, c.fetch)
	select {
	case <-ctx.Done():
		return c.State(), ctx.Err()
	case res := <-ch:
		st, _ := res.Val.(State)
		return st, res.Err
	}
}

// Teardown stops polling, cancels any in-flight request and waits for the
// client's goroutines. No state changes after it returns. Safe to repeat.
func (c *Client) Teardown() {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	if !already {
		c.logger.Debug("torn down")
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// #endregion client

// #region coordinator
func (c *Client) loop() {
	defer c.wg.Done()
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-c.life.Done():
			return
		case <-t.C:
			if _, err := c.RefreshNow(c.life); err != nil && c.life.Err() == nil {
				c.logger.Warn("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

// fetch is the single flight body. The sequence number is taken at issue
// time under the same lock that guards teardown.
func (c *Client) fetch() (any, error) {
	c.mu.Lock()
	if c.closed {
		st := c.state
		c.mu.Unlock()
		return st, ErrClosed
	}
	c.issued++
	seq := c.issued
	c.wg.Add(1)
	c.mu.Unlock()

	snap, err := c.fetcher.FetchRisk(c.life, c.userID)
	if err != nil && !errors.Is(err, ErrServiceRejected) && !errors.Is(err, ErrTransport) && c.life.Err() == nil {
		err = fmt.Errorf("%w: %w", ErrTransport, err)
	}
	st, applied := c.apply(seq, snap, err)
	c.wg.Done()

	if applied && c.onChange != nil {
		c.onChange(st)
	}
	if !applied && c.isClosed() {
		return st, ErrClosed
	}
	return st, err
}

// apply installs the outcome of fetch seq unless the client is closed or a
// newer result has already been applied.
func (c *Client) apply(seq uint64, snap Snapshot, err error) (State, bool) {
	c.mu.Lock()
	if c.closed {
		st := c.state
		c.mu.Unlock()
		return st, false
	}
	if seq < c.state.Seq {
		st := c.state
		c.mu.Unlock()
		c.logger.Debug("stale result dropped", zap.Uint64("seq", seq), zap.Uint64("applied", st.Seq))
		return st, false
	}

	next := c.state
	next.Seq = seq
	if err != nil {
		next.Status = StatusError
		next.Err = err
	} else {
		s := snap
		next.Status = StatusReady
		next.Last = &s
		next.Err = nil
		next.LastFetchedAt = c.now()
	}
	c.state = next
	c.mu.Unlock()

	if err != nil {
		c.logger.Info("refresh failed", zap.Uint64("seq", seq), zap.Error(err))
	} else {
		c.logger.Debug("state applied", zap.Uint64("seq", seq), zap.String("level", string(snap.Assessment.Level)))
	}
	return next, true
}

// #endregion coordinator
