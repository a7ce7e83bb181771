package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

// Starting layout. The Entrance Hall sits below the Foyer, which sits below
// the Grand Staircase.
const (
	EntranceHall   = "Entrance Hall"
	Foyer          = "Foyer"
	GrandStaircase = "Grand Staircase"

	StartRoomID = "room-001"
)

type bootstrapTile struct {
	name string
	x, y int
}

var bootstrapLayout = []bootstrapTile{
	{EntranceHall, 0, -1},
	{Foyer, 0, 0},
	{GrandStaircase, 0, 1},
}

// ── Geometry ─────────────────────────────────────────────────────────────────

var sideOffsets = map[catalog.Side][2]int{
	catalog.SideTop:    {0, 1},
	catalog.SideBottom: {0, -1},
	catalog.SideLeft:   {-1, 0},
	catalog.SideRight:  {1, 0},
}

var oppositeSides = map[catalog.Side]catalog.Side{
	catalog.SideTop:    catalog.SideBottom,
	catalog.SideBottom: catalog.SideTop,
	catalog.SideLeft:   catalog.SideRight,
	catalog.SideRight:  catalog.SideLeft,
}

var directionAliases = map[string]catalog.Side{
	"up":     catalog.SideTop,
	"down":   catalog.SideBottom,
	"top":    catalog.SideTop,
	"bottom": catalog.SideBottom,
	"left":   catalog.SideLeft,
	"right":  catalog.SideRight,
}

// ValidDirections lists the accepted direction spellings.
var ValidDirections = []string{"up", "down", "left", "right", "top", "bottom"}

// Opposite returns the side facing s across a shared edge.
func Opposite(s catalog.Side) catalog.Side { return oppositeSides[s] }

// Offset returns the grid step taken when leaving through side s.
func Offset(s catalog.Side) (dx, dy int) {
	o := sideOffsets[s]
	return o[0], o[1]
}

// NormalizeDirection maps a user-supplied direction onto a tile side.
func NormalizeDirection(direction string) (catalog.Side, error) {
	side, ok := directionAliases[strings.ToLower(strings.TrimSpace(direction))]
	if !ok {
		return "", invalid("Invalid direction: %s. Use up/down/left/right", direction).
			With("validDirections", ValidDirections)
	}
	return side, nil
}

// ── Rotation ─────────────────────────────────────────────────────────────────

// Rotations lists the legal tile rotations in degrees clockwise.
var Rotations = []int{0, 90, 180, 270}

var rotationTables = map[int]map[catalog.Side]catalog.Side{
	0: {
		catalog.SideTop: catalog.SideTop, catalog.SideRight: catalog.SideRight,
		catalog.SideBottom: catalog.SideBottom, catalog.SideLeft: catalog.SideLeft,
	},
	90: {
		catalog.SideTop: catalog.SideRight, catalog.SideRight: catalog.SideBottom,
		catalog.SideBottom: catalog.SideLeft, catalog.SideLeft: catalog.SideTop,
	},
	180: {
		catalog.SideTop: catalog.SideBottom, catalog.SideRight: catalog.SideLeft,
		catalog.SideBottom: catalog.SideTop, catalog.SideLeft: catalog.SideRight,
	},
	270: {
		catalog.SideTop: catalog.SideLeft, catalog.SideRight: catalog.SideTop,
		catalog.SideBottom: catalog.SideRight, catalog.SideLeft: catalog.SideBottom,
	},
}

var rotationDescriptions = map[int]string{
	0:   "No rotation",
	90:  "90° clockwise",
	180: "180° (upside down)",
	270: "270° clockwise (90° counter-clockwise)",
}

// RotationDescription returns a human-readable label for degrees.
func RotationDescription(degrees int) string { return rotationDescriptions[degrees] }

// Rotate maps template doors onto the sides they occupy after turning the
// tile clockwise by degrees. Rotated doors start unconnected.
func Rotate(doors []catalog.Door, degrees int) (map[catalog.Side]Door, error) {
	table, ok := rotationTables[degrees]
	if !ok {
		return nil, invalid("Invalid rotation: %d", degrees).With("validRotations", Rotations)
	}
	out := make(map[catalog.Side]Door, len(doors))
	for _, d := range doors {
		out[table[d.Side]] = Door{Kind: d.Kind}
	}
	return out, nil
}

// sortedSides returns the door sides of a rotated tile in clockwise order.
func sortedSides(doors map[catalog.Side]Door) []catalog.Side {
	out := make([]catalog.Side, 0, len(doors))
	for _, s := range catalog.Sides {
		if _, ok := doors[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// ── Map ──────────────────────────────────────────────────────────────────────

// Room returns the placed room with the given instance id.
func (m *HouseMap) Room(id string) (*PlacedRoom, bool) {
	for i := range m.PlacedRooms {
		if m.PlacedRooms[i].InstanceID == id {
			return &m.PlacedRooms[i], true
		}
	}
	return nil, false
}

// RoomAt returns the room occupying a grid cell.
func (m *HouseMap) RoomAt(floor catalog.Floor, x, y int) (*PlacedRoom, bool) {
	for i := range m.PlacedRooms {
		r := &m.PlacedRooms[i]
		if r.Floor == floor && r.X == x && r.Y == y {
			return r, true
		}
	}
	return nil, false
}

// RoomByName returns the first placed instance of the named tile.
func (m *HouseMap) RoomByName(name string) (*PlacedRoom, bool) {
	for i := range m.PlacedRooms {
		if strings.EqualFold(m.PlacedRooms[i].RoomName, name) {
			return &m.PlacedRooms[i], true
		}
	}
	return nil, false
}

// roomName returns the tile name for id, or "" when it is not placed.
func (m *HouseMap) roomName(id string) string {
	if r, ok := m.Room(id); ok {
		return r.RoomName
	}
	return ""
}

// nextInstanceID reserves the next room-NNN id.
func (m *HouseMap) nextInstanceID() string {
	id := fmt.Sprintf("room-%03d", m.NextRoomID)
	m.NextRoomID++
	return id
}

// link connects side of a to the opposite side of b.
func link(a *PlacedRoom, side catalog.Side, b *PlacedRoom) {
	aid, bid := a.InstanceID, b.InstanceID
	da := a.Doors[side]
	da.ConnectedTo = &bid
	a.Doors[side] = da
	opp := Opposite(side)
	db := b.Doors[opp]
	db.ConnectedTo = &aid
	b.Doors[opp] = db
}

// behind reports what lies past the unlinked side of r: nothing yet (nil), or
// the room already occupying that cell. open reports whether the occupant has
// a free plain door facing back, so the two can be joined.
func (m *HouseMap) behind(r *PlacedRoom, side catalog.Side) (occupant *PlacedRoom, open bool) {
	dx, dy := Offset(side)
	occupant, ok := m.RoomAt(r.Floor, r.X+dx, r.Y+dy)
	if !ok {
		return nil, false
	}
	back, ok := occupant.Doors[Opposite(side)]
	return occupant, ok && back.Kind == catalog.KindDoor && back.ConnectedTo == nil
}

// linkNeighbours joins every free plain door of r to an adjacent room that
// has a free plain door facing it. It returns the sides that were linked.
func (m *HouseMap) linkNeighbours(r *PlacedRoom) []catalog.Side {
	var linked []catalog.Side
	for _, side := range sortedSides(r.Doors) {
		door := r.Doors[side]
		if door.Kind != catalog.KindDoor || door.ConnectedTo != nil {
			continue
		}
		if occupant, open := m.behind(r, side); open {
			link(r, side, occupant)
			linked = append(linked, side)
		}
	}
	return linked
}

// Bootstrap builds the three starting tiles and links them.
func (e *Engine) Bootstrap() (HouseMap, error) {
	m := HouseMap{NextRoomID: 1}
	for _, t := range bootstrapLayout {
		tpl, ok := e.catalog.Room(t.name)
		if !ok {
			return HouseMap{}, fmt.Errorf("game: bootstrap: starting room %q missing from catalog", t.name)
		}
		doors, err := Rotate(tpl.Doors, 0)
		if err != nil {
			return HouseMap{}, err
		}
		m.PlacedRooms = append(m.PlacedRooms, PlacedRoom{
			InstanceID:     m.nextInstanceID(),
			RoomName:       tpl.Name,
			Floor:          catalog.FloorGround,
			X:              t.x,
			Y:              t.y,
			Doors:          doors,
			Tokens:         slices.Clone(tpl.Tokens),
			TokenCollected: true,
		})
	}
	for i := 0; i+1 < len(m.PlacedRooms); i++ {
		lower, upper := &m.PlacedRooms[i], &m.PlacedRooms[i+1]
		if _, ok := lower.Doors[catalog.SideTop]; !ok {
			return HouseMap{}, fmt.Errorf("game: bootstrap: %s has no top door", lower.RoomName)
		}
		if _, ok := upper.Doors[catalog.SideBottom]; !ok {
			return HouseMap{}, fmt.Errorf("game: bootstrap: %s has no bottom door", upper.RoomName)
		}
		link(lower, catalog.SideTop, upper)
	}
	return m, nil
}

// CheckMap verifies the structural map invariants: unique cells, symmetric
// door links, and links only between orthogonally adjacent rooms on the same
// floor. One-way slides are not doors and are not checked.
func CheckMap(m *HouseMap) error {
	type cell struct {
		floor catalog.Floor
		x, y  int
	}
	seen := make(map[cell]string, len(m.PlacedRooms))
	for _, r := range m.PlacedRooms {
		c := cell{r.Floor, r.X, r.Y}
		if other, dup := seen[c]; dup {
			return fmt.Errorf("game: %s and %s share cell %s (%d,%d)", other, r.InstanceID, r.Floor, r.X, r.Y)
		}
		seen[c] = r.InstanceID
	}
	for _, r := range m.PlacedRooms {
		for side, d := range r.Doors {
			if d.ConnectedTo == nil {
				continue
			}
			other, ok := m.Room(*d.ConnectedTo)
			if !ok {
				return fmt.Errorf("game: %s.%s links to missing room %s", r.InstanceID, side, *d.ConnectedTo)
			}
			back, ok := other.Doors[Opposite(side)]
			if !ok || back.ConnectedTo == nil || *back.ConnectedTo != r.InstanceID {
				return fmt.Errorf("game: %s.%s -> %s is not mirrored", r.InstanceID, side, other.InstanceID)
			}
			dx, dy := Offset(side)
			if other.Floor != r.Floor || other.X != r.X+dx || other.Y != r.Y+dy {
				return fmt.Errorf("game: %s.%s -> %s is not adjacent", r.InstanceID, side, other.InstanceID)
			}
		}
	}
	return nil
}
