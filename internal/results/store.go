// internal/results/store.go
//
// Persistence for finished games.
//
// Implementations:
//   - memory (this file): a slice guarded by an RWMutex; lost on exit.
//     Used when no RESULTS_DB is configured and in tests.
//   - SQLite (sqlite.go): durable, shared with the stats server.
//
// Both answer the same two questions: who wins most (Leaderboard) and what
// was played lately (Recent).

package results

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/robalobadob/wordfrag/internal/game"
)

// DefaultLimit is used when a non-positive limit is requested.
const DefaultLimit = 20

// ErrDuplicate is returned when a game with the same ID was already saved.
var ErrDuplicate = errors.New("results: game already saved")

// LeaderboardRow aggregates one player name across games.
type LeaderboardRow struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Played int    `json:"played"`
}

// Store defines the persistence interface for game results.
type Store interface {
	// Save records a finished game.
	Save(ctx context.Context, s game.Summary) error

	// Leaderboard ranks player names by games won (desc), then name. A name
	// seated twice in one game counts that game once.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)

	// Recent lists games, most recently finished first.
	Recent(ctx context.Context, limit int) ([]game.Summary, error)
}

// memory is an in-memory Store implementation.
type memory struct {
	mu    sync.RWMutex   // guards games
	games []game.Summary // in save order
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{}
}

func (m *memory) Save(ctx context.Context, s game.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.games {
		if g.ID == s.ID {
			return ErrDuplicate
		}
	}
	m.games = append(m.games, s)
	return nil
}

func (m *memory) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byName := make(map[string]*LeaderboardRow)
	for _, g := range m.games {
		// name -> whether any seat with that name won this game
		won := make(map[string]bool, len(g.Players))
		for _, p := range g.Players {
			won[p.Name] = won[p.Name] || p.Winner
		}
		for name, w := range won {
			r, ok := byName[name]
			if !ok {
				r = &LeaderboardRow{Name: name}
				byName[name] = r
			}
			r.Played++
			if w {
				r.Wins++
			}
		}
	}

	out := make([]LeaderboardRow, 0, len(byName))
	for _, r := range byName {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return clip(out, limit), nil
}

func (m *memory) Recent(ctx context.Context, limit int) ([]game.Summary, error) {
	m.mu.RLock()
	out := make([]game.Summary, len(m.games))
	copy(out, m.games)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	return clip(out, limit), nil
}

func clip[T any](s []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
