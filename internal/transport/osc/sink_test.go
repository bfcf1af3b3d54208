package osctransport

import (
	"bytes"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscmix/spatializer/pkg/protocol"
)

var _ protocol.Sink = (*Sink)(nil)

type fakeSender struct {
	sent []*osc.Message
	err  error
}

func (f *fakeSender) Send(p osc.Packet) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, p.(*osc.Message))
	return nil
}

func TestEncode(t *testing.T) {
	msg, err := Encode(protocol.SnappedPosition(4, 45.5))
	require.NoError(t, err)
	assert.Equal(t, "/objectPosition", msg.Address)
	assert.Equal(t, []any{int32(4), float32(45.5)}, msg.Arguments)

	_, err = Encode(protocol.NewMessage("/x", 7))
	assert.ErrorContains(t, err, "unsupported type int")
}

func TestSink_Send(t *testing.T) {
	sender := &fakeSender{}
	s, err := NewSinkWithSender(sender, "test", nil)
	require.NoError(t, err)

	s.Send(protocol.ObjectPosition(1, 90))
	s.Send(protocol.NewMessage(protocol.AddressSoloAll, int32(1)))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, []any{int32(1), int32(90)}, sender.sent[0].Arguments)
	assert.Equal(t, "/soloAll", sender.sent[1].Address)
	assert.Equal(t, "test", s.Target())
}

func TestSink_FailuresAreLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	s, err := NewSinkWithSender(&fakeSender{err: errors.New("network unreachable")}, "peer:9000", logger)
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.Send(protocol.ObjectPosition(1, 0)) })
	assert.Contains(t, logs.String(), "network unreachable")
	assert.Contains(t, logs.String(), "target=peer:9000")
}

func TestSinkToServer_OverUDP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	received := make(chan *osc.Message, 4)
	srv := NewServer(nil)
	require.NoError(t, srv.Handle(protocol.ChannelIn(2), func(msg *osc.Message) {
		received <- msg
	}))
	srv.Serve(conn)
	t.Cleanup(func() { _ = srv.Close() })

	port := conn.LocalAddr().(*net.UDPAddr).Port
	sink, err := NewSink("127.0.0.1", port, nil)
	require.NoError(t, err)

	sink.Send(protocol.NewMessage(protocol.ChannelIn(1), float32(0.1)))
	sink.Send(protocol.NewMessage(protocol.ChannelIn(2), float32(0.5)))

	select {
	case msg := <-received:
		assert.Equal(t, "/channelIn/2", msg.Address)
		assert.Equal(t, []any{float32(0.5)}, msg.Arguments)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	srv := NewServer(nil)
	assert.Nil(t, srv.Addr())
	assert.NoError(t, srv.Close())

	srv = NewServer(nil)
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	assert.NotNil(t, srv.Addr())
	assert.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())
}

func TestArgs(t *testing.T) {
	msg := osc.NewMessage("/fader/set")
	msg.Append("master")
	msg.Append(float32(0.25))
	msg.Append(int32(3))
	msg.Append(true)
	msg.Append(int64(-7))

	assert.Equal(t, []string{"master", "0.25", "3", "true", "-7"}, Args(msg))
	assert.Empty(t, Args(osc.NewMessage("/snap")))
}
