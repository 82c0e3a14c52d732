// internal/config/config.go
//
// Runtime configuration from the environment.
//
// A `.env` file in the working directory is loaded first (if present); real
// environment variables always win over it.
//
// Environment variables:
//   LOG_LEVEL=debug|info|warn|error      (default depends on the subcommand)
//   WORDS_FREQUENCY_FILE=/path/to.csv    (default: embedded list)
//   TURN_TIMEOUT=10s                     (Go duration or whole seconds)
//   START_LIVES=3
//   WORD_MODE=round|continuous
//   UNIQUE_WORDS=player|game
//   RESULTS_DB=./data/results.db         (empty: results kept in memory)
//   DAILY=true|false
//   DAILY_SALT=local_dev_salt
//   PORT=5175                            (stats server)

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/wordfrag/internal/game"
)

// Config holds every tunable of the game and the stats server.
type Config struct {
	LogLevel    string
	WordsFile   string
	TurnTimeout time.Duration
	Lives       int
	Mode        game.Mode
	Scope       game.Scope
	ResultsDB   string
	Daily       bool
	DailySalt   string
	Port        string
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for
// unset or empty variables.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	c := Config{
		LogLevel:  get("LOG_LEVEL", ""),
		WordsFile: get("WORDS_FREQUENCY_FILE", ""),
		Mode:      game.Mode(strings.ToLower(get("WORD_MODE", string(game.ModeRound)))),
		Scope:     game.Scope(strings.ToLower(get("UNIQUE_WORDS", string(game.ScopePlayer)))),
		ResultsDB: get("RESULTS_DB", ""),
		DailySalt: get("DAILY_SALT", "local_dev_salt"),
		Port:      get("PORT", "5175"),
	}

	var err error
	if c.TurnTimeout, err = parseTimeout(get("TURN_TIMEOUT", "10s")); err != nil {
		return c, err
	}
	if c.Lives, err = strconv.Atoi(get("START_LIVES", strconv.Itoa(game.DefaultLives))); err != nil || c.Lives < 1 {
		return c, fmt.Errorf("config: START_LIVES must be a positive integer, got %q", getenv("START_LIVES"))
	}
	if c.Mode != game.ModeRound && c.Mode != game.ModeContinuous {
		return c, fmt.Errorf("config: WORD_MODE must be %q or %q, got %q", game.ModeRound, game.ModeContinuous, c.Mode)
	}
	if c.Scope != game.ScopePlayer && c.Scope != game.ScopeGame {
		return c, fmt.Errorf("config: UNIQUE_WORDS must be %q or %q, got %q", game.ScopePlayer, game.ScopeGame, c.Scope)
	}
	if c.Daily, err = strconv.ParseBool(get("DAILY", "false")); err != nil {
		return c, fmt.Errorf("config: DAILY: %w", err)
	}
	return c, nil
}

// parseTimeout accepts a Go duration ("1m30s") or a number of seconds ("10").
func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		n, nerr := strconv.Atoi(s)
		if nerr != nil {
			return 0, fmt.Errorf("config: TURN_TIMEOUT %q is neither a duration nor seconds", s)
		}
		d = time.Duration(n) * time.Second
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: TURN_TIMEOUT must be positive, got %s", s)
	}
	return d, nil
}
