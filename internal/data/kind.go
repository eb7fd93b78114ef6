package data

import "fmt"

// ObjType is the broad category of a game object.
type ObjType uint8

const (
	TypeTile ObjType = iota
	TypeBot
	TypeMissile
	TypeEffect
)

var objTypeNames = [...]string{"tile", "bot", "missile", "effect"}

func (t ObjType) String() string {
	if int(t) < len(objTypeNames) {
		return objTypeNames[t]
	}
	return fmt.Sprintf("ObjType(%d)", t)
}

// Blocking reports whether objects of this type stop moving bodies.
func (t ObjType) Blocking() bool { return t == TypeTile || t == TypeBot }

func ParseObjType(s string) (ObjType, error) {
	for i, n := range objTypeNames {
		if n == s {
			return ObjType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

// Side is the faction an object fights for.
type Side uint8

const (
	SideNeutral Side = iota
	SidePlayer
	SideAI
)

var sideNames = [...]string{"neutral", "player", "ai"}

func (s Side) String() string {
	if int(s) < len(sideNames) {
		return sideNames[s]
	}
	return fmt.Sprintf("Side(%d)", s)
}

// Opposes reports whether objects on side s may hit objects on side o.
// Neutral objects (walls, crates) oppose everyone.
func (s Side) Opposes(o Side) bool { return s != o || s == SideNeutral }

func ParseSide(s string) (Side, error) {
	if s == "" {
		return SideNeutral, nil
	}
	for i, n := range sideNames {
		if n == s {
			return Side(i), nil
		}
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// AIKind selects the behavior variant driving an AI bot.
type AIKind uint8

const (
	AIChaseShoot AIKind = iota
	AIScripted
)

func ParseAIKind(s string) (AIKind, error) {
	switch s {
	case "", "chase_shoot":
		return AIChaseShoot, nil
	case "scripted":
		return AIScripted, nil
	}
	return 0, fmt.Errorf("unknown ai kind %q", s)
}

func (k AIKind) String() string {
	if k == AIScripted {
		return "scripted"
	}
	return "chase_shoot"
}
