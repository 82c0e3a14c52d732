// internal/game/types.go
//
// Core type definitions for the fragment game engine.
// Defines:
//   - Player: a named seat with a life budget and its own used-word set.
//   - Mode / Scope: how challenges rotate and how repeats are judged.
//   - Outcome: the result of one turn (accepted, rejected, timed out).
//   - Summary: an immutable record of a finished (or abandoned) game.

package game

import (
	"context"
	"time"
)

// DefaultLives is the life budget each player starts with.
const DefaultLives = 3

// DefaultTurnTimeout bounds how long a player may take to answer.
const DefaultTurnTimeout = 10 * time.Second

// Player is one participant. Lives only ever go down.
type Player struct {
	Name      string
	Lives     int
	WordsUsed map[string]struct{} // words this player had accepted
}

// NewPlayer creates a player with its own empty used-word set.
func NewPlayer(name string, lives int) *Player {
	return &Player{Name: name, Lives: lives, WordsUsed: make(map[string]struct{})}
}

// Alive reports whether the player still takes turns.
func (p *Player) Alive() bool { return p.Lives > 0 }

// HasUsed reports whether the player already had w accepted.
func (p *Player) HasUsed(w string) bool {
	_, ok := p.WordsUsed[w]
	return ok
}

func (p *Player) loseLife() {
	if p.Lives > 0 {
		p.Lives--
	}
}

// Mode controls when a new challenge word is drawn.
type Mode string

const (
	// ModeRound keeps one fragment for a whole round.
	ModeRound Mode = "round"
	// ModeContinuous draws a fresh fragment after every accepted word.
	ModeContinuous Mode = "continuous"
)

// Scope controls which earlier submissions count as repeats.
type Scope string

const (
	// ScopePlayer rejects a word only if the same player used it before.
	ScopePlayer Scope = "player"
	// ScopeGame rejects a word used by anyone in the game.
	ScopeGame Scope = "game"
)

// Result is the coarse verdict for a turn.
type Result string

const (
	ResultAccepted Result = "accepted"
	ResultRejected Result = "rejected"
	ResultTimeout  Result = "timeout"
)

// Reason explains a rejected submission.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEmpty           Reason = "empty"
	ReasonMissingFragment Reason = "missing_fragment"
	ReasonAlreadyUsed     Reason = "already_used"
	ReasonUnknownWord     Reason = "unknown_word"
)

// Outcome describes what happened on one turn.
type Outcome struct {
	Player     string
	Word       string // normalized submission; empty on timeout
	Fragment   string // fragment the player had to include
	Result     Result
	Reason     Reason
	LivesLeft  int
	Eliminated bool // the turn took the player's last life
	Level      int  // level the turn was played at
}

// Source supplies challenge words and judges vocabulary.
// *words.Classifier satisfies it.
type Source interface {
	WordByLevel(level int) (string, error)
	IsValid(word string) bool
}

// Input asks a player for a word. Implementations return ErrTimeout when the
// player does not answer within timeout.
type Input interface {
	Ask(ctx context.Context, p *Player, fragment string, timeout time.Duration) (string, error)
}

// Narrator is told about everything a table of players would want to see.
type Narrator interface {
	Turn(o Outcome)
	RoundOver(round, level int, fragment string)
	GameOver(winners []*Player)
}

// PlayerSummary is the final standing of one seat. Names need not be
// unique, so Winner is recorded per seat.
type PlayerSummary struct {
	Name   string `json:"name"`
	Lives  int    `json:"lives"`
	Words  int    `json:"words"`
	Winner bool   `json:"winner"`
}

// Summary records a game for storage and reporting.
type Summary struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Mode       Mode            `json:"mode"`
	Rounds     int             `json:"rounds"`
	FinalLevel int             `json:"finalLevel"`
	Players    []PlayerSummary `json:"players"`
	Winners    []string        `json:"winners"`
}
