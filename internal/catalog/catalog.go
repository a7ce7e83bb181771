// Package catalog holds the immutable reference data the game tracker reads
// but never owns: room tile templates, playable characters and the fixed
// stair transitions between floors.
//
// A [Catalog] is built once (usually from the embedded YAML via [Default] or
// from files via [Load]) and then shared read-only. Tests construct fixture
// catalogs directly with [New].
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Catalog is a read-only set of room templates, characters and stair links.
// All methods are safe for concurrent use.
type Catalog struct {
	rooms   []RoomTemplate
	roomIdx map[string]int

	characters []Character
	charIdx    map[string]int

	stairs []StairLink

	matcher *Matcher
}

// New validates the given reference data and returns a [Catalog] over copies
// of the slices. It returns a joined error listing every problem found.
func New(rooms []RoomTemplate, characters []Character, stairs []StairLink) (*Catalog, error) {
	c := &Catalog{
		rooms:      slices.Clone(rooms),
		roomIdx:    make(map[string]int, len(rooms)),
		characters: slices.Clone(characters),
		charIdx:    make(map[string]int, len(characters)),
		stairs:     slices.Clone(stairs),
		matcher:    NewMatcher(),
	}

	var errs []error
	for i, r := range c.rooms {
		prefix := fmt.Sprintf("rooms[%d]", i)
		key := normalize(r.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := c.roomIdx[key]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of rooms[%d]", prefix, r.Name, prev))
			continue
		}
		c.roomIdx[key] = i
		if len(r.Floors) == 0 {
			errs = append(errs, fmt.Errorf("%s (%s): at least one floor is required", prefix, r.Name))
		}
		for _, f := range r.Floors {
			if !f.IsValid() {
				errs = append(errs, fmt.Errorf("%s (%s): floor %q is invalid", prefix, r.Name, f))
			}
		}
		seen := make(map[Side]bool, len(r.Doors))
		for _, d := range r.Doors {
			if !d.Side.IsValid() {
				errs = append(errs, fmt.Errorf("%s (%s): door side %q is invalid", prefix, r.Name, d.Side))
			}
			if !d.Kind.IsValid() {
				errs = append(errs, fmt.Errorf("%s (%s): door kind %q is invalid", prefix, r.Name, d.Kind))
			}
			if seen[d.Side] {
				errs = append(errs, fmt.Errorf("%s (%s): more than one door on side %q", prefix, r.Name, d.Side))
			}
			seen[d.Side] = true
		}
		for _, t := range r.Tokens {
			if !t.IsValid() {
				errs = append(errs, fmt.Errorf("%s (%s): token %q is invalid", prefix, r.Name, t))
			}
		}
	}
	for i, r := range c.rooms {
		if r.SlideTo != "" {
			if _, ok := c.roomIdx[normalize(r.SlideTo)]; !ok {
				errs = append(errs, fmt.Errorf("rooms[%d] (%s): slide_to names unknown room %q", i, r.Name, r.SlideTo))
			}
		}
	}

	for i, ch := range c.characters {
		prefix := fmt.Sprintf("characters[%d]", i)
		if ch.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
			continue
		}
		if prev, ok := c.charIdx[ch.ID]; ok {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of characters[%d]", prefix, ch.ID, prev))
			continue
		}
		c.charIdx[ch.ID] = i
		for _, trait := range Traits {
			t, ok := ch.Traits[trait]
			if !ok {
				errs = append(errs, fmt.Errorf("%s (%s): trait %q is missing", prefix, ch.ID, trait))
				continue
			}
			if len(t.Track) != TrackLength {
				errs = append(errs, fmt.Errorf("%s (%s): %s track has %d values, want %d", prefix, ch.ID, trait, len(t.Track), TrackLength))
				continue
			}
			if t.StartIndex < 0 || t.StartIndex >= len(t.Track) {
				errs = append(errs, fmt.Errorf("%s (%s): %s start_index %d is out of range", prefix, ch.ID, trait, t.StartIndex))
			}
		}
	}

	for i, s := range c.stairs {
		prefix := fmt.Sprintf("stairs[%d]", i)
		if _, ok := c.roomIdx[normalize(s.From)]; !ok {
			errs = append(errs, fmt.Errorf("%s.from names unknown room %q", prefix, s.From))
		}
		if _, ok := c.roomIdx[normalize(s.To)]; !ok {
			errs = append(errs, fmt.Errorf("%s.to names unknown room %q", prefix, s.To))
		}
		if !s.Floor.IsValid() {
			errs = append(errs, fmt.Errorf("%s.floor %q is invalid", prefix, s.Floor))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// ── Rooms ────────────────────────────────────────────────────────────────────

// Room returns the template whose name equals name, ignoring case.
func (c *Catalog) Room(name string) (RoomTemplate, bool) {
	i, ok := c.roomIdx[normalize(name)]
	if !ok {
		return RoomTemplate{}, false
	}
	return c.rooms[i], true
}

// LookupRoom resolves a loosely typed room name. An exact (case-insensitive)
// match wins; otherwise the query must be a substring of exactly one
// template name.
func (c *Catalog) LookupRoom(query string) (RoomTemplate, bool) {
	if r, ok := c.Room(query); ok {
		return r, true
	}
	q := normalize(query)
	if q == "" {
		return RoomTemplate{}, false
	}
	found := -1
	for i, r := range c.rooms {
		if strings.Contains(normalize(r.Name), q) {
			if found >= 0 {
				return RoomTemplate{}, false
			}
			found = i
		}
	}
	if found < 0 {
		return RoomTemplate{}, false
	}
	return c.rooms[found], true
}

// SuggestRooms returns up to limit template names that sound or look like
// query, best match first.
func (c *Catalog) SuggestRooms(query string, limit int) []string {
	names := make([]string, len(c.rooms))
	for i, r := range c.rooms {
		names[i] = r.Name
	}
	return c.matcher.Rank(query, names, limit)
}

// Rooms returns every template in catalog order.
func (c *Catalog) Rooms() []RoomTemplate {
	return slices.Clone(c.rooms)
}

// RoomsOnFloor returns the templates that may be placed on f.
func (c *Catalog) RoomsOnFloor(f Floor) []RoomTemplate {
	var out []RoomTemplate
	for _, r := range c.rooms {
		if r.AllowsFloor(f) {
			out = append(out, r)
		}
	}
	return out
}

// StartingRooms returns the templates marked as starting tiles.
func (c *Catalog) StartingRooms() []RoomTemplate {
	var out []RoomTemplate
	for _, r := range c.rooms {
		if r.Starting {
			out = append(out, r)
		}
	}
	return out
}

// ── Stairs ───────────────────────────────────────────────────────────────────

// StairsFrom returns the stair transitions that leave the named room.
func (c *Catalog) StairsFrom(roomName string) []StairLink {
	key := normalize(roomName)
	var out []StairLink
	for _, s := range c.stairs {
		if normalize(s.From) == key {
			out = append(out, s)
		}
	}
	return out
}

// Stairs returns every stair transition.
func (c *Catalog) Stairs() []StairLink {
	return slices.Clone(c.stairs)
}

// ── Characters ───────────────────────────────────────────────────────────────

// Character returns the character with the given id.
func (c *Catalog) Character(id string) (Character, bool) {
	i, ok := c.charIdx[id]
	if !ok {
		return Character{}, false
	}
	return c.characters[i], true
}

// LookupCharacter resolves an id, full name or nickname, ignoring case.
func (c *Catalog) LookupCharacter(query string) (Character, bool) {
	if ch, ok := c.Character(query); ok {
		return ch, true
	}
	q := normalize(query)
	for _, ch := range c.characters {
		if normalize(ch.ID) == q || normalize(ch.Name) == q || (ch.Nickname != "" && normalize(ch.Nickname) == q) {
			return ch, true
		}
	}
	return Character{}, false
}

// SuggestCharacters returns up to limit character ids whose id, name or
// nickname resembles query.
func (c *Catalog) SuggestCharacters(query string, limit int) []string {
	names := make([]string, 0, len(c.characters)*2)
	owner := make(map[string]string, len(c.characters)*2)
	for _, ch := range c.characters {
		for _, n := range []string{ch.ID, ch.Name, ch.Nickname} {
			if n == "" {
				continue
			}
			if _, dup := owner[n]; dup {
				continue
			}
			owner[n] = ch.ID
			names = append(names, n)
		}
	}
	var ids []string
	for _, n := range c.matcher.Rank(query, names, 0) {
		id := owner[n]
		if slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids
}

// Characters returns every character in catalog order.
func (c *Catalog) Characters() []Character {
	return slices.Clone(c.characters)
}

// CharacterIDs returns the ids of every character in catalog order.
func (c *Catalog) CharacterIDs() []string {
	ids := make([]string, len(c.characters))
	for i, ch := range c.characters {
		ids[i] = ch.ID
	}
	return ids
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
