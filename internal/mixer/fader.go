// Package mixer implements the channel strip controls that share the
// panel's outbound channel: master and reverb faders, per-channel solo and
// input level meters.
package mixer

import (
	"math"
	"sync"

	"github.com/oscmix/spatializer/pkg/protocol"
)

// Fader range in decibels.
const (
	MinDecibels = -70.0
	MaxDecibels = 0.0
)

// Decibels maps a fader position in [0, 1] to decibels on a square-law
// curve. Positions outside the range are clamped.
func Decibels(v float64) float64 {
	v = clamp01(v)
	return MinDecibels + (MaxDecibels-MinDecibels)*v*v
}

// Gain converts decibels to a linear amplitude factor.
func Gain(db float64) float64 {
	return math.Pow(10, db/20)
}

// Fader sends its level in decibels whenever it moves.
type Fader struct {
	address string
	sink    protocol.Sink

	mu    sync.Mutex
	value float64
}

// NewFader creates a fader for address, such as protocol.AddressMasterFader.
func NewFader(address string, sink protocol.Sink, initial float64) *Fader {
	return &Fader{address: address, sink: sink, value: clamp01(initial)}
}

// Address returns the outbound address of the fader.
func (f *Fader) Address() string {
	return f.address
}

// Set moves the fader, sends the new level and returns it in decibels.
func (f *Fader) Set(v float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = clamp01(v)
	return f.sendLocked()
}

// Resend sends the current level again. Used once at start-up.
func (f *Fader) Resend() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendLocked()
}

// Value returns the fader position in [0, 1].
func (f *Fader) Value() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Decibels returns the current level.
func (f *Fader) Decibels() float64 {
	return Decibels(f.Value())
}

func (f *Fader) sendLocked() float64 {
	db := Decibels(f.value)
	if f.sink != nil {
		f.sink.Send(protocol.NewMessage(f.address, float32(db)))
	}
	return db
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
