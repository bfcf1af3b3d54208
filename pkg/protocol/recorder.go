package protocol

import (
	"log/slog"
	"sync"
)

// Recorder is a Sink that keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send records m.
func (r *Recorder) Send(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Reset drops all recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// LogSink writes each message to a logger at debug level. Used when the
// OSC transport is disabled.
type LogSink struct {
	Logger *slog.Logger
}

// Send logs m.
func (s LogSink) Send(m Message) {
	if s.Logger == nil {
		return
	}
	s.Logger.Debug("message", "address", m.Address, "args", m.Args)
}
