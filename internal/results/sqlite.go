// internal/results/sqlite.go
//
// SQLite-backed Store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Saving games and answering leaderboard / recent-games queries.

package results

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordfrag/internal/game"
)

//go:embed sql/*.sql
var migrations embed.FS

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at path and
// applies pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// migrate applies every embedded sql/*.sql file not yet listed in _migrations,
// each in its own transaction, in lexical order.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Save inserts the game and its seats in one transaction.
func (s *SQLite) Save(ctx context.Context, g game.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO games (id, started_at, finished_at, mode, rounds, final_level)
        VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, formatTime(g.StartedAt), formatTime(g.FinishedAt), string(g.Mode), g.Rounds, g.FinalLevel,
	)
	if err != nil {
		if isConstraint(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert game: %w", err)
	}

	for seat, p := range g.Players {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO game_players (game_id, seat, name, lives, words, winner)
            VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, seat, p.Name, p.Lives, p.Words, p.Winner,
		); err != nil {
			return fmt.Errorf("insert player %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// Leaderboard ranks names by games won, then alphabetically.
func (s *SQLite) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT name,
               COUNT(DISTINCT CASE WHEN winner = 1 THEN game_id END) AS wins,
               COUNT(DISTINCT game_id) AS played
        FROM game_players
        GROUP BY name
        ORDER BY wins DESC, name ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Name, &r.Wins, &r.Played); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recent returns the latest games with their seats.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]game.Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, started_at, finished_at, mode, rounds, final_level
        FROM games
        ORDER BY finished_at DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}

	out := make([]game.Summary, 0, limit)
	for rows.Next() {
		var g game.Summary
		var started, finished, mode string
		if err := rows.Scan(&g.ID, &started, &finished, &mode, &g.Rounds, &g.FinalLevel); err != nil {
			rows.Close()
			return nil, err
		}
		g.StartedAt, g.FinishedAt, g.Mode = parseTime(started), parseTime(finished), game.Mode(mode)
		out = append(out, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadPlayers(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLite) loadPlayers(ctx context.Context, g *game.Summary) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, lives, words, winner
        FROM game_players
        WHERE game_id=?
        ORDER BY seat`, g.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	g.Players = []game.PlayerSummary{}
	g.Winners = []string{}
	for rows.Next() {
		var p game.PlayerSummary
		if err := rows.Scan(&p.Name, &p.Lives, &p.Words, &p.Winner); err != nil {
			return err
		}
		g.Players = append(g.Players, p)
		if p.Winner {
			g.Winners = append(g.Winners, p.Name)
		}
	}
	return rows.Err()
}

// timeLayout is fixed-width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}
