package mixer

import (
	"fmt"
	"sync"

	"github.com/oscmix/spatializer/pkg/protocol"
)

// Solo tracks the solo buttons of channels 1..n. At most one channel is
// soloed at a time.
type Solo struct {
	sink protocol.Sink

	mu    sync.Mutex
	state []bool
}

// NewSolo creates solo state for channels channels, all off.
func NewSolo(channels int, sink protocol.Sink) *Solo {
	return &Solo{sink: sink, state: make([]bool, max(channels, 0))}
}

// Channels returns the number of channels.
func (s *Solo) Channels() int {
	return len(s.state)
}

// Toggle flips the solo of a 1-based channel and reports its new state.
// Turning a channel on turns every other soloed channel off first.
func (s *Solo) Toggle(channel int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := channel - 1
	if i < 0 || i >= len(s.state) {
		return false, fmt.Errorf("solo channel %d out of range 1..%d", channel, len(s.state))
	}

	if !s.state[i] {
		for j, on := range s.state {
			if j != i && on {
				s.state[j] = false
				s.send(protocol.AddressSoloOff, j+1)
			}
		}
	}

	s.state[i] = !s.state[i]
	if s.state[i] {
		s.send(protocol.AddressSoloAll, 0)
		s.send(protocol.AddressSoloOn, channel)
	} else {
		s.send(protocol.AddressSoloOff, channel)
	}

	if s.allOff() {
		s.send(protocol.AddressSoloAll, 1)
	}
	return s.state[i], nil
}

// Clear turns every channel off and re-enables all channels.
func (s *Solo) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state {
		s.state[i] = false
		s.send(protocol.AddressSoloOff, i+1)
	}
	s.send(protocol.AddressSoloAll, 1)
}

// Soloed returns the soloed channel, or 0 when none is.
func (s *Solo) Soloed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, on := range s.state {
		if on {
			return i + 1
		}
	}
	return 0
}

func (s *Solo) allOff() bool {
	for _, on := range s.state {
		if on {
			return false
		}
	}
	return true
}

func (s *Solo) send(address string, v int) {
	if s.sink == nil {
		return
	}
	s.sink.Send(protocol.NewMessage(address, int32(v)))
}
