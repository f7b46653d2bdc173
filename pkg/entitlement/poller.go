package entitlement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// DefaultPollInterval is the reference refresh period.
const DefaultPollInterval = 30 * time.Second

// ErrPollerRunning is returned by Start on a running poller.
var ErrPollerRunning = errors.New("entitlement: poller already running")

// Refresher is the query the poller schedules. *Client implements it.
type Refresher interface {
	Refresh(ctx context.Context, user string, serviceID uint64) (*model.Entitlement, error)
}

// UpdateFunc receives the outcome of every scheduled refresh.
type UpdateFunc func(k Key, e *model.Entitlement, err error)

// Poller refreshes a set of watched keys on a fixed interval.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	clock     clock.Clock
	onUpdate  UpdateFunc

	mu     sync.Mutex
	keys   map[Key]struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) PollerOption { return func(p *Poller) { p.interval = d } }

// WithClock replaces the wall clock, e.g. with clock.NewMock() in tests.
func WithClock(c clock.Clock) PollerOption { return func(p *Poller) { p.clock = c } }

// OnUpdate installs the update callback.
func OnUpdate(fn UpdateFunc) PollerOption { return func(p *Poller) { p.onUpdate = fn } }

// NewPoller returns a stopped poller over r.
func NewPoller(r Refresher, opts ...PollerOption) *Poller {
	p := &Poller{
		refresher: r,
		interval:  DefaultPollInterval,
		clock:     clock.New(),
		keys:      make(map[Key]struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Watch adds (user, serviceID) to the refreshed set.
func (p *Poller) Watch(user string, serviceID uint64) {
	p.mu.Lock()
	p.keys[Key{User: user, ServiceID: serviceID}] = struct{}{}
	p.mu.Unlock()
}

// Unwatch removes (user, serviceID) from the refreshed set.
func (p *Poller) Unwatch(user string, serviceID uint64) {
	p.mu.Lock()
	delete(p.keys, Key{User: user, ServiceID: serviceID})
	p.mu.Unlock()
}

// Watched returns the number of watched keys.
func (p *Poller) Watched() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Start runs the poll loop until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrPollerRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	ticker := p.clock.Ticker(p.interval)
	go p.run(ctx, ticker, p.done)
	return nil
}

// Stop cancels the loop, including any refresh in flight, and waits for it
// to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce refreshes every watched key once.
func (p *Poller) PollOnce(ctx context.Context) {
	p.mu.Lock()
	keys := make([]Key, 0, len(p.keys))
	for k := range p.keys {
		keys = append(keys, k)
	}
	p.mu.Unlock()

	for _, k := range keys {
		if ctx.Err() != nil {
			return
		}
		e, err := p.refresher.Refresh(ctx, k.User, k.ServiceID)
		if err != nil && ctx.Err() != nil {
			return
		}
		if err != nil {
			zap.L().Warn("Entitlement refresh failed", zap.String("key", k.String()), zap.Error(err))
		}
		if p.onUpdate != nil {
			p.onUpdate(k, e, err)
		}
	}
}
