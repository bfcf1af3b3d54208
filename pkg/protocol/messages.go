// Package protocol defines the addresses and argument conventions shared by
// everything the panel sends to, or receives from, the audio system.
//
// A Message is transport independent: an address string plus an ordered,
// typed argument list. Integers travel as int32 and floats as float32.
package protocol

import (
	"fmt"
	"strings"
)

// Outbound addresses.
const (
	AddressObjectPosition = "/objectPosition"
	AddressSoloOn         = "/soloOn"
	AddressSoloOff        = "/soloOff"
	AddressSoloAll        = "/soloAll"
	AddressMasterFader    = "/MasterFader"
	AddressReverbFader    = "/ReverbFader"
)

// ChannelInPrefix is the prefix of the inbound meter addresses, one per channel.
const ChannelInPrefix = "/channelIn/"

// Inbound command addresses. Arguments are the same as the textual command
// arguments: a layout name, an object id and label text, a fader name and
// value, or a channel number.
const (
	AddressSnap         = "/snap"
	AddressLabelSet     = "/label/set"
	AddressLayoutSave   = "/layout/save"
	AddressLayoutLoad   = "/layout/load"
	AddressLayoutDelete = "/layout/delete"
	AddressLayoutList   = "/layout/list"
	AddressSoloToggle   = "/solo/toggle"
	AddressSoloClear    = "/solo/clear"
	AddressFaderSet     = "/fader/set"
)

// ChannelIn returns the inbound meter address for a 1-based channel.
func ChannelIn(channel int) string {
	return fmt.Sprintf("%s%d", ChannelInPrefix, channel)
}

// Message is one outbound protocol message.
type Message struct {
	Address string
	Args    []any
}

// NewMessage builds a Message.
func NewMessage(address string, args ...any) Message {
	return Message{Address: address, Args: args}
}

// ObjectPosition is the integer-bearing position message sent on drags and broadcasts.
func ObjectPosition(id, bearing int) Message {
	return NewMessage(AddressObjectPosition, int32(id), int32(bearing))
}

// SnappedPosition is the float-bearing position message sent after a snap.
func SnappedPosition(id int, bearing float64) Message {
	return NewMessage(AddressObjectPosition, int32(id), float32(bearing))
}

// String implements fmt.Stringer.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Address)
	for _, a := range m.Args {
		fmt.Fprintf(&b, " %v", a)
	}
	return b.String()
}

// Sink is a one-way, fire-and-forget message channel. Implementations must
// not block and never report delivery.
type Sink interface {
	Send(Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Message)

// Send calls f(m).
func (f SinkFunc) Send(m Message) {
	f(m)
}

// MultiSink fans every message out to all of its sinks, in order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink, skipping nil sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	valid := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			valid = append(valid, s)
		}
	}
	return &MultiSink{sinks: valid}
}

// Send forwards m to every sink.
func (m *MultiSink) Send(msg Message) {
	for _, s := range m.sinks {
		s.Send(msg)
	}
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}
