package net

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ObjectView is one object as the renderer draws it.
type ObjectView struct {
	ID        uint64     `msgpack:"id"`
	Config    string     `msgpack:"config"`
	Pos       [2]float64 `msgpack:"pos"`
	Direction [2]float64 `msgpack:"direction"`
	ScreenPos [2]float64 `msgpack:"screen_pos"`
	Visible   bool       `msgpack:"visible"`
	State     string     `msgpack:"state"`
	Alpha     float64    `msgpack:"alpha"`
}

// Snapshot is the per-tick frame sent to spectators. Released lists the
// ids removed since the previous snapshot so the renderer can free them.
type Snapshot struct {
	Tick     uint64       `msgpack:"tick"`
	Origin   [2]float64   `msgpack:"origin"`
	Objects  []ObjectView `msgpack:"objects"`
	Released []uint64     `msgpack:"released"`
}

// EncodeSnapshot serializes a snapshot for one binary websocket message.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
