// Package resilience short-circuits upstream feeds that keep failing so a
// lookup does not spend its timeout budget on a dataset that is down.
// Nothing in this package retries.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// State is a breaker state.
type State int

const (
	// Closed passes calls through.
	Closed State = iota
	// Open rejects calls until the cooldown elapses.
	Open
	// HalfOpen lets one probe through.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected without being made.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerConfig controls when a breaker opens and for how long.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive counted failures that
	// opens the breaker. Default: 5.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	// CooldownSecs is how long an open breaker rejects calls. Default: 60.
	CooldownSecs int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.CooldownSecs <= 0 {
		c.CooldownSecs = 60
	}
	return c
}

// Breaker guards one upstream.
type Breaker struct {
	name     string
	cfg      BreakerConfig
	counts   func(error) bool
	onChange func(name string, from, to State)

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

func newBreaker(name string, cfg BreakerConfig, counts func(error) bool, onChange func(string, State, State)) *Breaker {
	return &Breaker{
		name:     name,
		cfg:      cfg.withDefaults(),
		counts:   counts,
		onChange: onChange,
		now:      time.Now,
	}
}

// State reports the current state, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.cooledDown() {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) cooledDown() bool {
	return b.now().Sub(b.openedAt) >= time.Duration(b.cfg.CooldownSecs)*time.Second
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if !b.cooledDown() {
			return ErrCircuitOpen
		}
		b.transition(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) release(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil {
		b.failures = 0
		if b.state != Closed {
			b.transition(Closed)
		}
		return
	}
	// An uncounted error says nothing about upstream health. A half-open
	// breaker stays half-open so the next call probes again.
	if !b.counts(err) {
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		if b.state != Open {
			b.transition(Open)
		}
	}
}

// transition must be called with mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}

// Call runs fn through b. It returns ErrCircuitOpen without calling fn
// while the breaker is open.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.acquire(); err != nil {
		return zero, eris.Wrapf(err, "resilience: %s", b.name)
	}
	v, err := fn(ctx)
	b.release(err)
	return v, err
}

// Breakers is a lazily populated set of named breakers sharing one config.
type Breakers struct {
	cfg BreakerConfig
	// Counts decides which errors count toward opening. Defaults to
	// CountsAsFailure.
	Counts func(error) bool
	// OnStateChange is invoked with the breaker name on every transition.
	OnStateChange func(name string, from, to State)

	mu  sync.RWMutex
	set map[string]*Breaker
}

// NewBreakers creates an empty set.
func NewBreakers(cfg BreakerConfig) *Breakers {
	return &Breakers{cfg: cfg, Counts: CountsAsFailure, set: make(map[string]*Breaker)}
}

// Get returns the breaker for name, creating it on first use.
func (s *Breakers) Get(name string) *Breaker {
	s.mu.RLock()
	b, ok := s.set[name]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.set[name]; ok {
		return b
	}
	counts := s.Counts
	if counts == nil {
		counts = CountsAsFailure
	}
	b = newBreaker(name, s.cfg, counts, s.notify)
	s.set[name] = b
	return b
}

// notify forwards to the hook installed at call time, so breakers created
// before OnStateChange was set still report.
func (s *Breakers) notify(name string, from, to State) {
	if fn := s.OnStateChange; fn != nil {
		fn(name, from, to)
	}
}

// States snapshots every breaker's state.
func (s *Breakers) States() map[string]State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]State, len(s.set))
	for name, b := range s.set {
		out[name] = b.State()
	}
	return out
}
