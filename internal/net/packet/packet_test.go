package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

func TestDecodeCommand(t *testing.T) {
	raw, err := Encode(Command{Op: OpDestination, X: 120, Y: -4.5})
	require.NoError(t, err)

	c, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Command{Op: OpDestination, X: 120, Y: -4.5}, c)

	raw, err = msgpack.Marshal(map[string]any{"op": "fire", "on": true})
	require.NoError(t, err)
	c, err = Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Command{Op: OpFire, On: true}, c)
}

func TestDecodeRejects(t *testing.T) {
	raw, err := Encode(Command{Op: "jump"})
	require.NoError(t, err)
	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = Decode([]byte{0xc1})
	assert.Error(t, err)
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got []Command
	reg.Register(OpStop, func(c Command) { got = append(got, c) })
	reg.Register(OpFire, func(Command) { panic("boom") })

	require.NoError(t, reg.Dispatch(Command{Op: OpStop}))
	assert.Equal(t, []Command{{Op: OpStop}}, got)

	assert.NoError(t, reg.Dispatch(Command{Op: OpDirection}), "unhandled ops are ignored")

	err := reg.Dispatch(Command{Op: OpFire})
	assert.ErrorContains(t, err, "handler panic for op fire")
}
