// Package broadcast emits object positions to the outbound protocol sink.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/pkg/protocol"
)

var (
	// ErrNoSink is returned when no outbound sink is configured.
	ErrNoSink = errors.New("no outbound sink configured")
	// ErrEmptyRegistry is returned by All when there is nothing to broadcast.
	ErrEmptyRegistry = errors.New("no registered objects")
)

// DefaultSettleDelay is the wait between start-up and the first full broadcast.
const DefaultSettleDelay = 500 * time.Millisecond

// Broadcaster turns position changes into protocol messages.
type Broadcaster struct {
	sink   protocol.Sink
	clock  Clock
	logger *slog.Logger

	sent metric.Int64Counter
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithClock replaces the wall clock used for the settle delay.
func WithClock(c Clock) Option {
	return func(b *Broadcaster) {
		b.clock = c
	}
}

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = l
	}
}

// New creates a Broadcaster writing to sink. A nil sink is accepted; every
// send then reports ErrNoSink.
func New(sink protocol.Sink, opts ...Option) (*Broadcaster, error) {
	b := &Broadcaster{
		sink:   sink,
		clock:  wallClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	var err error
	b.sent, err = meter().Int64Counter(
		"broadcast.messages.sent",
		metric.WithDescription("Total position messages handed to the sink"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}

	return b, nil
}

// Position sends the integer bearing of one object.
func (b *Broadcaster) Position(id, bearing int) error {
	return b.send(protocol.ObjectPosition(id, bearing), "drag")
}

// Snapped sends the float bearing of a freshly snapped object.
func (b *Broadcaster) Snapped(id int, bearing float64) error {
	return b.send(protocol.SnappedPosition(id, bearing), "snap")
}

// All sends one integer-bearing message per object, in the order given.
func (b *Broadcaster) All(objects []registry.Object) error {
	if b.sink == nil {
		b.logger.Warn("skipping broadcast", "error", ErrNoSink)
		return ErrNoSink
	}
	if len(objects) == 0 {
		b.logger.Warn("skipping broadcast", "error", ErrEmptyRegistry)
		return ErrEmptyRegistry
	}
	for _, o := range objects {
		if err := b.send(protocol.ObjectPosition(o.ID, o.Bearing()), "all"); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broadcaster) send(m protocol.Message, reason string) error {
	if b.sink == nil {
		b.logger.Warn("dropping message", "address", m.Address, "error", ErrNoSink)
		return ErrNoSink
	}
	b.sink.Send(m)
	b.sent.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("address", m.Address),
		attribute.String("reason", reason),
	))
	return nil
}

// Settle is a pending start-up broadcast.
type Settle struct {
	timer   Timer
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

// StartSettle schedules a single broadcast of snapshot() after delay.
// A non-positive delay uses DefaultSettleDelay. snapshot is called when the
// timer fires, not when it is scheduled. When mu is not nil it is held from
// the snapshot until the last message is sent, so events applied under the
// same lock cannot be overtaken by stale start-up bearings.
func (b *Broadcaster) StartSettle(delay time.Duration, mu sync.Locker, snapshot func() []registry.Object) *Settle {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	s := &Settle{done: make(chan struct{})}
	s.timer = b.clock.AfterFunc(delay, func() {
		defer s.finish()
		if mu != nil {
			mu.Lock()
			defer mu.Unlock()
		}
		if s.stopped.Load() {
			return
		}
		objects := snapshot()
		if err := b.All(objects); err != nil {
			return
		}
		b.logger.Info("initial positions sent", "objects", len(objects))
	})
	return s
}

// Stop cancels the broadcast. It reports whether the timer was still
// pending. A broadcast whose timer has fired but which is still waiting
// for mu is skipped as well.
func (s *Settle) Stop() bool {
	if s == nil || s.timer == nil {
		return false
	}
	s.stopped.Store(true)
	if s.timer.Stop() {
		s.finish()
		return true
	}
	return false
}

// Done is closed once the broadcast has run or has been stopped.
func (s *Settle) Done() <-chan struct{} {
	return s.done
}

func (s *Settle) finish() {
	s.once.Do(func() { close(s.done) })
}
