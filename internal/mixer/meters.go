package mixer

import (
	"fmt"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	osctransport "github.com/oscmix/spatializer/internal/transport/osc"
	"github.com/oscmix/spatializer/pkg/protocol"
)

// Router registers handlers for inbound OSC addresses. It is implemented by
// *osctransport.Server.
type Router interface {
	Handle(address string, h osctransport.HandlerFunc) error
}

// Meters holds the last input level received for each channel.
type Meters struct {
	mu     sync.RWMutex
	levels []float64
}

// NewMeters creates meters for channels 1..n, all at zero.
func NewMeters(channels int) *Meters {
	return &Meters{levels: make([]float64, max(channels, 0))}
}

// Bind routes /channelIn/{n} for every channel to the meters.
func (m *Meters) Bind(r Router) error {
	for ch := 1; ch <= len(m.levels); ch++ {
		channel := ch
		if err := r.Handle(protocol.ChannelIn(channel), func(msg *osc.Message) {
			m.Receive(channel, msg.Arguments)
		}); err != nil {
			return fmt.Errorf("binding meter %d: %w", channel, err)
		}
	}
	return nil
}

// Receive stores the first argument as the level of a 1-based channel.
// Messages whose first argument is not a float are ignored.
func (m *Meters) Receive(channel int, args []any) bool {
	if len(args) == 0 {
		return false
	}
	var level float64
	switch v := args[0].(type) {
	case float32:
		level = float64(v)
	case float64:
		level = v
	default:
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	i := channel - 1
	if i < 0 || i >= len(m.levels) {
		return false
	}
	m.levels[i] = level
	return true
}

// Level returns the last level of a 1-based channel.
func (m *Meters) Level(channel int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := channel - 1
	if i < 0 || i >= len(m.levels) {
		return 0
	}
	return m.levels[i]
}

// Levels returns a copy of all levels in channel order.
func (m *Meters) Levels() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]float64, len(m.levels))
	copy(out, m.levels)
	return out
}
