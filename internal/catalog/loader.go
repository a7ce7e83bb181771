package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/rooms.yaml data/characters.yaml
var defaultData embed.FS

// RoomsFile is the top-level structure of a rooms YAML file.
//
// Example:
//
//	rooms:
//	  - name: "Ballroom"
//	    floors: [ground]
//	    doors:
//	      - {side: top, kind: door}
//	    tokens: [event]
//	stairs:
//	  - {from: "Grand Staircase", floor: upper, to: "Upper Landing"}
type RoomsFile struct {
	Rooms  []RoomTemplate `yaml:"rooms"`
	Stairs []StairLink    `yaml:"stairs"`
}

// CharactersFile is the top-level structure of a characters YAML file.
type CharactersFile struct {
	Characters []Character `yaml:"characters"`
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// Default returns the catalog built from the embedded reference data. The
// result is parsed once and shared.
func Default() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		rooms, err := defaultData.ReadFile("data/rooms.yaml")
		if err != nil {
			defaultCatalogErr = fmt.Errorf("catalog: read embedded rooms: %w", err)
			return
		}
		chars, err := defaultData.ReadFile("data/characters.yaml")
		if err != nil {
			defaultCatalogErr = fmt.Errorf("catalog: read embedded characters: %w", err)
			return
		}
		defaultCatalog, defaultCatalogErr = LoadFromReaders(bytes.NewReader(rooms), bytes.NewReader(chars))
	})
	return defaultCatalog, defaultCatalogErr
}

// Load builds a catalog from the given YAML files. An empty path selects the
// embedded default for that half of the data.
func Load(roomsPath, charactersPath string) (*Catalog, error) {
	if roomsPath == "" && charactersPath == "" {
		return Default()
	}
	rooms, err := openOrEmbedded(roomsPath, "data/rooms.yaml")
	if err != nil {
		return nil, err
	}
	defer rooms.Close()
	chars, err := openOrEmbedded(charactersPath, "data/characters.yaml")
	if err != nil {
		return nil, err
	}
	defer chars.Close()
	return LoadFromReaders(rooms, chars)
}

func openOrEmbedded(path, embedded string) (io.ReadCloser, error) {
	if path == "" {
		f, err := defaultData.Open(embedded)
		if err != nil {
			return nil, fmt.Errorf("catalog: open embedded %q: %w", embedded, err)
		}
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	return f, nil
}

// LoadFromReaders decodes rooms and characters YAML and validates the result.
func LoadFromReaders(rooms, characters io.Reader) (*Catalog, error) {
	var rf RoomsFile
	if err := decodeStrict(rooms, &rf); err != nil {
		return nil, fmt.Errorf("catalog: decode rooms yaml: %w", err)
	}
	var cf CharactersFile
	if err := decodeStrict(characters, &cf); err != nil {
		return nil, fmt.Errorf("catalog: decode characters yaml: %w", err)
	}
	return New(rf.Rooms, cf.Characters, rf.Stairs)
}

func decodeStrict(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(v)
}
