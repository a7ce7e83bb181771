package catalog_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/hillhouse/internal/catalog"
)

func TestDefault_LoadsEmbeddedData(t *testing.T) {
	t.Parallel()

	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if got := len(c.Characters()); got != 12 {
		t.Errorf("characters = %d, want 12", got)
	}

	for _, name := range []string{"Entrance Hall", "Foyer", "Grand Staircase", "Upper Landing", "Ballroom", "Coal Chute"} {
		if _, ok := c.Room(name); !ok {
			t.Errorf("Room(%q) not found", name)
		}
	}

	starting := c.StartingRooms()
	names := make([]string, len(starting))
	for i, r := range starting {
		names[i] = r.Name
	}
	for _, want := range []string{"Entrance Hall", "Foyer", "Grand Staircase"} {
		if !slices.Contains(names, want) {
			t.Errorf("StartingRooms missing %q (got %v)", want, names)
		}
	}
}

func TestDefault_CharacterTracks(t *testing.T) {
	t.Parallel()

	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	tests := []struct {
		id    string
		trait string
		want  int
	}{
		{"father-rhinehardt", catalog.TraitSpeed, 3},
		{"madame-zostra", catalog.TraitSanity, 4},
		{"heather-granville", catalog.TraitSpeed, 4},
	}
	for _, tc := range tests {
		ch, ok := c.Character(tc.id)
		if !ok {
			t.Fatalf("Character(%q) not found", tc.id)
		}
		if got := ch.Traits[tc.trait].StartValue(); got != tc.want {
			t.Errorf("%s %s start value = %d, want %d", tc.id, tc.trait, got, tc.want)
		}
	}
}

func TestDefault_StairsAndSlides(t *testing.T) {
	t.Parallel()

	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	links := c.StairsFrom("grand staircase")
	if len(links) != 1 || links[0].To != "Upper Landing" || links[0].Floor != catalog.FloorUpper {
		t.Errorf("StairsFrom(grand staircase) = %+v, want one link to Upper Landing", links)
	}

	chute, ok := c.Room("Coal Chute")
	if !ok {
		t.Fatal("Coal Chute not found")
	}
	if chute.SlideTo != "Basement Landing" {
		t.Errorf("Coal Chute slide_to = %q, want %q", chute.SlideTo, "Basement Landing")
	}
}

func TestLookupRoom(t *testing.T) {
	t.Parallel()

	c := fixture(t)

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"Ballroom", "Ballroom", true},
		{"ballroom", "Ballroom", true},
		{"  BALLROOM ", "Ballroom", true},
		{"ball", "Ballroom", true},
		{"Hall", "", false}, // ambiguous: Entrance Hall, Hall Way
		{"Observatory", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			t.Parallel()
			got, ok := c.LookupRoom(tc.query)
			if ok != tc.wantOK {
				t.Fatalf("LookupRoom(%q) ok = %v, want %v", tc.query, ok, tc.wantOK)
			}
			if ok && got.Name != tc.want {
				t.Errorf("LookupRoom(%q) = %q, want %q", tc.query, got.Name, tc.want)
			}
		})
	}
}

func TestLookupCharacter(t *testing.T) {
	t.Parallel()

	c := fixture(t)

	for _, q := range []string{"tester", "Test Pilot", "the pilot", "THE PILOT"} {
		ch, ok := c.LookupCharacter(q)
		if !ok {
			t.Errorf("LookupCharacter(%q) not found", q)
			continue
		}
		if ch.ID != "tester" {
			t.Errorf("LookupCharacter(%q) = %q, want tester", q, ch.ID)
		}
	}
	if _, ok := c.LookupCharacter("nobody"); ok {
		t.Error("LookupCharacter(nobody) should not be found")
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	t.Parallel()

	rooms := []catalog.RoomTemplate{
		{Name: "Broken", Floors: []catalog.Floor{"attic"}, Doors: []catalog.Door{{Side: "north", Kind: catalog.KindDoor}}},
		{Name: "broken", Floors: []catalog.Floor{catalog.FloorGround}},
	}
	chars := []catalog.Character{{ID: "short", Traits: map[string]catalog.TraitTrack{
		catalog.TraitSpeed: {Track: []int{1, 2, 3}, StartIndex: 0},
	}}}
	stairs := []catalog.StairLink{{From: "Nowhere", Floor: catalog.FloorUpper, To: "Broken"}}

	_, err := catalog.New(rooms, chars, stairs)
	if err == nil {
		t.Fatal("New: expected validation error, got nil")
	}
	for _, want := range []string{
		`floor "attic" is invalid`,
		`door side "north" is invalid`,
		"duplicate",
		"speed track has 3 values",
		`trait "might" is missing`,
		`unknown room "Nowhere"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestLoadFromReaders_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	rooms := `
rooms:
  - name: "Vault"
    floors: [basement]
    colour: grey
`
	_, err := catalog.LoadFromReaders(strings.NewReader(rooms), strings.NewReader("characters: []\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("error should mention the unknown field, got: %v", err)
	}
}

func TestRoomsOnFloor(t *testing.T) {
	t.Parallel()

	c := fixture(t)
	for _, r := range c.RoomsOnFloor(catalog.FloorUpper) {
		if !r.AllowsFloor(catalog.FloorUpper) {
			t.Errorf("RoomsOnFloor(upper) returned %q which is not allowed upstairs", r.Name)
		}
	}
	if got := len(c.RoomsOnFloor(catalog.FloorBasement)); got != 0 {
		t.Errorf("RoomsOnFloor(basement) = %d rooms, want 0", got)
	}
}

// fixture returns a small hand-written catalog.
func fixture(t *testing.T) *catalog.Catalog {
	t.Helper()
	four := []catalog.Door{
		{Side: catalog.SideTop, Kind: catalog.KindDoor},
		{Side: catalog.SideRight, Kind: catalog.KindDoor},
		{Side: catalog.SideBottom, Kind: catalog.KindDoor},
		{Side: catalog.SideLeft, Kind: catalog.KindDoor},
	}
	rooms := []catalog.RoomTemplate{
		{Name: "Entrance Hall", Floors: []catalog.Floor{catalog.FloorGround}, Doors: four, Starting: true},
		{Name: "Hall Way", Floors: []catalog.Floor{catalog.FloorGround, catalog.FloorUpper}, Doors: four},
		{Name: "Ballroom", Floors: []catalog.Floor{catalog.FloorGround}, Doors: four, Tokens: []catalog.TokenType{catalog.TokenEvent}},
	}
	track := catalog.TraitTrack{Track: []int{1, 2, 3, 4, 5, 6, 7, 8}, StartIndex: 2}
	chars := []catalog.Character{{
		ID:       "tester",
		Name:     "Test Pilot",
		Nickname: "The Pilot",
		Traits: map[string]catalog.TraitTrack{
			catalog.TraitSpeed:     track,
			catalog.TraitMight:     track,
			catalog.TraitSanity:    track,
			catalog.TraitKnowledge: track,
		},
	}}
	c, err := catalog.New(rooms, chars, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
