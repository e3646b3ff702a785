// internal/store/memory.go
//
// Game registry: the Store interface plus its in-memory implementation.
//
// Characteristics:
//   - Stores shared *game.Game handles keyed by ID in a map.
//   - The map's RWMutex only guards insert/lookup/removal; each game carries
//     its own lock, so a move never holds the registry lock.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/robalobadob/chess-server/internal/game"
)

// Sentinel store errors.
var (
	ErrNotFound = errors.New("game not found")
	ErrConflict = errors.New("game changed concurrently")
)

// Store defines the persistence interface for games.
// Implementations may be backed by memory (this file) or Redis.
type Store interface {
	// Save persists a new game or updates a registered one. Updating a game
	// that was deleted (or expired) meanwhile fails with ErrNotFound.
	Save(ctx context.Context, g *game.Game) error

	// Get retrieves a game by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Game, error)

	// List returns all games ordered by creation time, oldest first.
	List(ctx context.Context) ([]*game.Game, error)

	// Delete removes a game, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex          // guards games map
	games map[string]*game.Game // keyed by Game.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*game.Game)}
}

// Save registers a new game or confirms a played one. A game with moves whose
// id has been deleted is not re-registered; Save returns ErrNotFound.
func (m *memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.ID]; !ok && g.MoveCount() > 0 {
		return ErrNotFound
	}
	m.games[g.ID] = g
	return nil
}

// Get returns the shared handle for id.
func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g, nil
	}
	return nil, ErrNotFound
}

func (m *memory) List(ctx context.Context) ([]*game.Game, error) {
	m.mu.RLock()
	out := make([]*game.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	m.mu.RUnlock()
	sortByCreation(out)
	return out, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

// sortByCreation orders by CreatedAt, then ID for equal instants.
func sortByCreation(gs []*game.Game) {
	sort.Slice(gs, func(i, j int) bool {
		if !gs[i].CreatedAt.Equal(gs[j].CreatedAt) {
			return gs[i].CreatedAt.Before(gs[j].CreatedAt)
		}
		return gs[i].ID < gs[j].ID
	})
}
