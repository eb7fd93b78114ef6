// Package packet defines the control commands spectators send to the
// server and routes them to their handlers.
package packet

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Op names a control command.
type Op string

const (
	OpDirection   Op = "dir"  // walk along (x, y)
	OpDestination Op = "goto" // walk to (x, y) and stop
	OpFire        Op = "fire" // hold (on) or release the trigger
	OpStop        Op = "stop"
)

// ErrUnknownOp is returned when decoding a command with an unknown op.
var ErrUnknownOp = errors.New("unknown command op")

// Command is one decoded control message. Wire format: a msgpack map
// {op, x, y, on}; unused fields may be omitted.
type Command struct {
	Op Op      `msgpack:"op"`
	X  float64 `msgpack:"x,omitempty"`
	Y  float64 `msgpack:"y,omitempty"`
	On bool    `msgpack:"on,omitempty"`
}

func (op Op) valid() bool {
	switch op {
	case OpDirection, OpDestination, OpFire, OpStop:
		return true
	}
	return false
}

// Decode parses one command frame.
func Decode(data []byte) (Command, error) {
	var c Command
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if !c.Op.valid() {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownOp, c.Op)
	}
	return c, nil
}

// Encode serializes a command.
func Encode(c Command) ([]byte, error) {
	return msgpack.Marshal(&c)
}
