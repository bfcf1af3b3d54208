package protocol

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPosition_IntegerArgs(t *testing.T) {
	m := ObjectPosition(3, 270)
	assert.Equal(t, AddressObjectPosition, m.Address)
	assert.Equal(t, []any{int32(3), int32(270)}, m.Args)
}

func TestSnappedPosition_FloatBearing(t *testing.T) {
	m := SnappedPosition(2, 22.5)
	assert.Equal(t, AddressObjectPosition, m.Address)
	assert.Equal(t, []any{int32(2), float32(22.5)}, m.Args)
}

func TestChannelIn(t *testing.T) {
	assert.Equal(t, "/channelIn/1", ChannelIn(1))
	assert.Equal(t, "/channelIn/12", ChannelIn(12))
}

func TestMessage_String(t *testing.T) {
	assert.Equal(t, "/objectPosition 1 90", ObjectPosition(1, 90).String())
	assert.Equal(t, "/soloAll", NewMessage(AddressSoloAll).String())
}

func TestMultiSink_FansOutInOrder(t *testing.T) {
	var order []string
	a := SinkFunc(func(m Message) { order = append(order, "a:"+m.Address) })
	b := SinkFunc(func(m Message) { order = append(order, "b:"+m.Address) })

	ms := NewMultiSink(a, nil, b)
	ms.Send(NewMessage("/x"))

	assert.Equal(t, 2, ms.Len())
	assert.Equal(t, []string{"a:/x", "b:/x"}, order)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Send(ObjectPosition(1, 0))
	r.Send(ObjectPosition(2, 90))

	got := r.Messages()
	assert.Len(t, got, 2)
	assert.Equal(t, ObjectPosition(2, 90), got[1])

	r.Reset()
	assert.Empty(t, r.Messages())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogSink{Logger: logger}.Send(ObjectPosition(4, 45))
	LogSink{}.Send(ObjectPosition(4, 45))

	assert.Contains(t, buf.String(), "address=/objectPosition")
}
