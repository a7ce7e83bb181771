package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
)

// suggestionLimit caps the "did you mean" names attached to lookup errors.
const suggestionLimit = 3

func registerCatalogTools(s *Server) {
	addTool(s, &mcpsdk.Tool{
		Name:        "get_all_characters",
		Description: "List every playable character with traits and starting values.",
	}, s.allCharacters)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_character_by_id",
		Description: "Get one character by its catalog id, e.g. madame-zostra.",
	}, s.characterByID)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_character_by_name",
		Description: "Get one character by a loosely spelled name.",
	}, s.characterByName)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_all_rooms",
		Description: "List every room tile template with doors, floors and printed text.",
	}, s.allRooms)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_room_by_name",
		Description: "Get one room tile template by a loosely spelled name.",
	}, s.roomByName)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_rooms_by_floor",
		Description: "List the room tile templates that may be placed on a floor.",
	}, s.roomsByFloor)
	addTool(s, &mcpsdk.Tool{
		Name:        "get_starting_rooms",
		Description: "List the fixed starting tiles (Entrance Hall, Foyer, Grand Staircase and landings).",
	}, s.startingRooms)
}

// ── Inputs and results ───────────────────────────────────────────────────────

type characterIDInput struct {
	CharacterID string `json:"character_id" jsonschema:"catalog id of the character"`
}

type nameInput struct {
	Name string `json:"name" jsonschema:"name to look up; case and minor misspellings are tolerated"`
}

type floorInput struct {
	Floor string `json:"floor" jsonschema:"basement, ground or upper"`
}

type characterList struct {
	Characters []catalog.Character `json:"characters"`
	Count      int                 `json:"count"`
}

type roomList struct {
	Floor string                 `json:"floor,omitempty"`
	Rooms []catalog.RoomTemplate `json:"rooms"`
	Count int                    `json:"count"`
}

func newRoomList(floor string, rooms []catalog.RoomTemplate) roomList {
	if rooms == nil {
		rooms = []catalog.RoomTemplate{}
	}
	return roomList{Floor: floor, Rooms: rooms, Count: len(rooms)}
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) allCharacters(context.Context, noInput) (any, error) {
	chars := s.engine().Catalog().Characters()
	return characterList{Characters: chars, Count: len(chars)}, nil
}

func (s *Server) characterByID(_ context.Context, in characterIDInput) (any, error) {
	cat := s.engine().Catalog()
	if c, ok := cat.Character(in.CharacterID); ok {
		return c, nil
	}
	return nil, catalogMiss("Character not found: %s", in.CharacterID).
		With("validCharacterIds", cat.CharacterIDs()).
		With("suggestions", cat.SuggestCharacters(in.CharacterID, suggestionLimit))
}

func (s *Server) characterByName(_ context.Context, in nameInput) (any, error) {
	cat := s.engine().Catalog()
	if c, ok := cat.LookupCharacter(in.Name); ok {
		return c, nil
	}
	return nil, catalogMiss("Character not found: %s", in.Name).
		With("suggestions", cat.SuggestCharacters(in.Name, suggestionLimit))
}

func (s *Server) allRooms(context.Context, noInput) (any, error) {
	return newRoomList("", s.engine().Catalog().Rooms()), nil
}

func (s *Server) roomByName(_ context.Context, in nameInput) (any, error) {
	cat := s.engine().Catalog()
	if r, ok := cat.LookupRoom(in.Name); ok {
		return r, nil
	}
	return nil, catalogMiss("Room not found: %s", in.Name).
		With("suggestions", cat.SuggestRooms(in.Name, suggestionLimit))
}

func (s *Server) roomsByFloor(_ context.Context, in floorInput) (any, error) {
	f := catalog.Floor(in.Floor)
	if !f.IsValid() {
		return nil, (&game.Error{
			Kind:    game.KindValidation,
			Message: fmt.Sprintf("Invalid floor: %s", in.Floor),
		}).With("validFloors", catalog.Floors)
	}
	return newRoomList(in.Floor, s.engine().Catalog().RoomsOnFloor(f)), nil
}

func (s *Server) startingRooms(context.Context, noInput) (any, error) {
	return newRoomList("", s.engine().Catalog().StartingRooms()), nil
}

func catalogMiss(format string, args ...any) *game.Error {
	return &game.Error{Kind: game.KindNotFound, Message: fmt.Sprintf(format, args...)}
}
