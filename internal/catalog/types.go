package catalog

import "slices"

// Floor identifies one of the three levels of the house.
type Floor string

const (
	FloorBasement Floor = "basement"
	FloorGround   Floor = "ground"
	FloorUpper    Floor = "upper"
)

// IsValid reports whether f is a recognised floor.
func (f Floor) IsValid() bool {
	switch f {
	case FloorBasement, FloorGround, FloorUpper:
		return true
	}
	return false
}

// Floors lists all floors from bottom to top.
var Floors = []Floor{FloorBasement, FloorGround, FloorUpper}

// Side is one edge of a square room tile.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides lists the tile edges in clockwise order starting at the top.
var Sides = []Side{SideTop, SideRight, SideBottom, SideLeft}

// IsValid reports whether s is a recognised side.
func (s Side) IsValid() bool {
	return slices.Contains(Sides, s)
}

// DoorKind distinguishes ordinary doors from stairs and the blocked front door.
type DoorKind string

const (
	KindDoor      DoorKind = "door"
	KindStairs    DoorKind = "stairs"
	KindFrontDoor DoorKind = "front-door"
)

// IsValid reports whether k is a recognised door kind.
func (k DoorKind) IsValid() bool {
	switch k {
	case KindDoor, KindStairs, KindFrontDoor:
		return true
	}
	return false
}

// TokenType is the card category a room token makes the player draw.
type TokenType string

const (
	TokenOmen  TokenType = "omen"
	TokenEvent TokenType = "event"
	TokenItem  TokenType = "item"
)

// IsValid reports whether t is a recognised token type.
func (t TokenType) IsValid() bool {
	switch t {
	case TokenOmen, TokenEvent, TokenItem:
		return true
	}
	return false
}

// Door is a single door on a room template, expressed for rotation 0.
type Door struct {
	Side Side     `yaml:"side" json:"side"`
	Kind DoorKind `yaml:"kind" json:"kind"`
}

// RoomTemplate describes a room tile as printed. Templates are shared and
// must not be modified by callers.
type RoomTemplate struct {
	Name   string      `yaml:"name" json:"name"`
	Floors []Floor     `yaml:"floors" json:"floorsAllowed"`
	Doors  []Door      `yaml:"doors" json:"doors"`
	Tokens []TokenType `yaml:"tokens" json:"tokens"`
	Text   string      `yaml:"text" json:"text,omitempty"`

	// Starting marks the fixed tiles that begin the game on the table.
	Starting bool `yaml:"starting" json:"isStartingRoom,omitempty"`

	// Stairwell marks rooms that take part in a stair transition even though
	// their printed doors carry no stairs symbol.
	Stairwell bool `yaml:"stairwell" json:"stairwell,omitempty"`

	// SlideTo names the room a one-way chute drops the player into.
	SlideTo string `yaml:"slide_to" json:"slideTo,omitempty"`
}

// AllowsFloor reports whether the tile may be placed on f.
func (r RoomTemplate) AllowsFloor(f Floor) bool {
	return slices.Contains(r.Floors, f)
}

// HasStairs reports whether the tile has a printed stairs door.
func (r RoomTemplate) HasStairs() bool {
	for _, d := range r.Doors {
		if d.Kind == KindStairs {
			return true
		}
	}
	return false
}

// DoorSides returns the printed door sides in template order.
func (r RoomTemplate) DoorSides() []Side {
	sides := make([]Side, 0, len(r.Doors))
	for _, d := range r.Doors {
		sides = append(sides, d.Side)
	}
	return sides
}

// Trait names used on every character card.
const (
	TraitSpeed     = "speed"
	TraitMight     = "might"
	TraitSanity    = "sanity"
	TraitKnowledge = "knowledge"
)

// Traits lists the four character traits.
var Traits = []string{TraitSpeed, TraitMight, TraitSanity, TraitKnowledge}

// TrackLength is the number of values on every printed trait track.
const TrackLength = 8

// TraitTrack is a trait's value track and the starting clip position.
type TraitTrack struct {
	Track      []int `yaml:"track" json:"track"`
	StartIndex int   `yaml:"start_index" json:"startIndex"`
}

// StartValue returns the value under the starting clip.
func (t TraitTrack) StartValue() int {
	return t.Track[t.StartIndex]
}

// Character is a playable explorer.
type Character struct {
	ID       string                `yaml:"id" json:"id"`
	Name     string                `yaml:"name" json:"name"`
	Nickname string                `yaml:"nickname" json:"nickname,omitempty"`
	Age      int                   `yaml:"age" json:"age,omitempty"`
	Hobbies  []string              `yaml:"hobbies" json:"hobbies,omitempty"`
	Traits   map[string]TraitTrack `yaml:"traits" json:"traits"`
}

// StairLink is a fixed stair transition from one named room to another
// named room on a different floor.
type StairLink struct {
	From  string `yaml:"from" json:"from"`
	Floor Floor  `yaml:"floor" json:"floor"`
	To    string `yaml:"to" json:"to"`
}
