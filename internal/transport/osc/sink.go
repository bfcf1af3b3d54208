// Package osctransport carries protocol messages over OSC/UDP.
package osctransport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hypebeast/go-osc/osc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/oscmix/spatializer/pkg/protocol"
)

const instrumentationName = "github.com/oscmix/spatializer/internal/transport/osc"

// Sender is the part of an OSC client the sink needs.
type Sender interface {
	Send(packet osc.Packet) error
}

// Sink sends every protocol message as one OSC message. It implements
// protocol.Sink: transport errors are logged and counted, never returned.
type Sink struct {
	client Sender
	target string
	logger *slog.Logger

	failures metric.Int64Counter
}

// NewSink creates a Sink sending to host:port.
func NewSink(host string, port int, logger *slog.Logger) (*Sink, error) {
	return NewSinkWithSender(osc.NewClient(host, port), fmt.Sprintf("%s:%d", host, port), logger)
}

// NewSinkWithSender creates a Sink over an existing sender.
func NewSinkWithSender(client Sender, target string, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	failures, err := otel.Meter(instrumentationName).Int64Counter(
		"osc.send.failures",
		metric.WithDescription("OSC messages that could not be written"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}
	return &Sink{
		client:   client,
		target:   target,
		logger:   logger.With("target", target),
		failures: failures,
	}, nil
}

// Send encodes m and writes it to the target.
func (s *Sink) Send(m protocol.Message) {
	msg, err := Encode(m)
	if err == nil {
		err = s.client.Send(msg)
	}
	if err != nil {
		s.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("address", m.Address)))
		s.logger.Warn("osc send failed", "address", m.Address, "error", err)
		return
	}
	s.logger.Debug("osc sent", "message", m.String())
}

// Target returns the host:port the sink writes to.
func (s *Sink) Target() string {
	return s.target
}

// Encode converts a protocol message to an OSC message. Only argument types
// OSC can carry are accepted.
func Encode(m protocol.Message) (*osc.Message, error) {
	msg := osc.NewMessage(m.Address)
	for i, a := range m.Args {
		switch a.(type) {
		case int32, int64, float32, float64, string, bool, []byte, nil:
		default:
			return nil, fmt.Errorf("argument %d of %s: unsupported type %T", i, m.Address, a)
		}
		msg.Append(a)
	}
	return msg, nil
}
