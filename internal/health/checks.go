package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/game"
)

// Pinger is anything that can report whether its backend is reachable. Every
// session store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the session store as ready when it answers a ping.
func StoreChecker(p Pinger) Checker {
	return Checker{
		Name:  "store",
		Check: p.Ping,
	}
}

// CatalogChecker reports the catalog as ready when it holds the rooms a new
// session is built from and at least one character.
func CatalogChecker(cat *catalog.Catalog) Checker {
	return Checker{
		Name: "catalog",
		Check: func(context.Context) error {
			if cat == nil {
				return errors.New("catalog not loaded")
			}
			for _, name := range []string{game.EntranceHall, game.Foyer, game.GrandStaircase} {
				if _, ok := cat.Room(name); !ok {
					return fmt.Errorf("starting room %q missing", name)
				}
			}
			if len(cat.Characters()) == 0 {
				return errors.New("no characters")
			}
			return nil
		},
	}
}
