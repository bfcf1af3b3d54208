package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscmix/spatializer/pkg/protocol"
)

func msg(address string, v int) protocol.Message {
	return protocol.NewMessage(address, int32(v))
}

func TestSolo_ToggleOnThenOff(t *testing.T) {
	rec := &protocol.Recorder{}
	s := NewSolo(4, rec)

	on, err := s.Toggle(2)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 2, s.Soloed())
	assert.Equal(t, []protocol.Message{
		msg(protocol.AddressSoloAll, 0),
		msg(protocol.AddressSoloOn, 2),
	}, rec.Messages())

	rec.Reset()
	on, err = s.Toggle(2)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, s.Soloed())
	assert.Equal(t, []protocol.Message{
		msg(protocol.AddressSoloOff, 2),
		msg(protocol.AddressSoloAll, 1),
	}, rec.Messages())
}

func TestSolo_ToggleSwitchesChannel(t *testing.T) {
	rec := &protocol.Recorder{}
	s := NewSolo(4, rec)

	_, err := s.Toggle(1)
	require.NoError(t, err)
	rec.Reset()

	on, err := s.Toggle(3)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 3, s.Soloed())
	assert.Equal(t, []protocol.Message{
		msg(protocol.AddressSoloOff, 1),
		msg(protocol.AddressSoloAll, 0),
		msg(protocol.AddressSoloOn, 3),
	}, rec.Messages())
}

func TestSolo_OutOfRange(t *testing.T) {
	rec := &protocol.Recorder{}
	s := NewSolo(2, rec)

	_, err := s.Toggle(0)
	assert.Error(t, err)
	_, err = s.Toggle(3)
	assert.Error(t, err)
	assert.Empty(t, rec.Messages())
}

func TestSolo_Clear(t *testing.T) {
	rec := &protocol.Recorder{}
	s := NewSolo(3, rec)
	_, err := s.Toggle(2)
	require.NoError(t, err)
	rec.Reset()

	s.Clear()
	assert.Equal(t, 0, s.Soloed())
	assert.Equal(t, []protocol.Message{
		msg(protocol.AddressSoloOff, 1),
		msg(protocol.AddressSoloOff, 2),
		msg(protocol.AddressSoloOff, 3),
		msg(protocol.AddressSoloAll, 1),
	}, rec.Messages())
}
