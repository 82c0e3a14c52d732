// internal/game/engine.go
//
// Core game engine for one fragment game.
// Responsibilities:
//   - Validate the table (≥2 named players, starting level 1–10).
//   - Draw challenge words and derive the fragment players must include.
//   - Judge submissions (fragment present, not a repeat, known word).
//   - Walk the turn pointer, skipping eliminated players, and detect rounds.
//   - Adapt difficulty once per round: step up after a clean round,
//     fall back to the last clean level otherwise.
//
// Notes:
//   - The game ends when at most one player has lives left.
//   - Words come from a Source; *words.Classifier is the production one.
//   - An empty level never stops play: the nearest non-empty level supplies the
//     word, and if no level has one the previous fragment is kept.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordfrag/internal/words"
)

// maxDrawAttempts caps redraws of words containing non-letters.
const maxDrawAttempts = 10

var (
	// ErrConfig marks every construction failure; callers re-prompt on it.
	ErrConfig = errors.New("game: invalid configuration")
	// ErrTooFewPlayers is returned when fewer than two names remain after trimming.
	ErrTooFewPlayers = errors.New("game: at least 2 players are required")
	// ErrNoWord is returned when no usable word could be drawn.
	ErrNoWord = errors.New("game: no usable word")
	// ErrGameOver is returned for turns attempted after the game ended.
	ErrGameOver = errors.New("game: game is over")
	// ErrTimeout is returned by Input implementations when a turn runs out.
	ErrTimeout = errors.New("game: turn timed out")
)

// Engine owns the players and round state of one game.
type Engine struct {
	ID        string
	StartedAt time.Time

	src     Source
	players []*Player
	mode    Mode
	scope   Scope
	lives   int
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time

	level          int
	lastSuccessful int
	word           string
	fragment       string
	current        int
	allCorrect     bool
	rounds         int                 // completed rounds
	used           map[string]struct{} // every accepted word, for ScopeGame
	finishedAt     time.Time
}

// Option tweaks an Engine at construction.
type Option func(*Engine)

// WithLives sets the starting life budget per player.
func WithLives(n int) Option { return func(e *Engine) { e.lives = n } }

// WithMode selects round or continuous challenge rotation.
func WithMode(m Mode) Option { return func(e *Engine) { e.mode = m } }

// WithUniqueWords selects per-player or game-wide repeat detection.
func WithUniqueWords(s Scope) Option { return func(e *Engine) { e.scope = s } }

// WithTurnTimeout sets the per-turn answer window.
func WithTurnTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New validates the table and returns an engine ready for Start.
// Names are trimmed and empty names dropped.
func New(names []string, level int, src Source, opts ...Option) (*Engine, error) {
	e := &Engine{
		ID:         uuid.NewString(),
		src:        src,
		mode:       ModeRound,
		scope:      ScopePlayer,
		lives:      DefaultLives,
		timeout:    DefaultTurnTimeout,
		log:        log.Logger,
		now:        time.Now,
		allCorrect: true,
		used:       make(map[string]struct{}),
	}
	for _, o := range opts {
		o(e)
	}

	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			e.players = append(e.players, NewPlayer(n, e.lives))
		}
	}
	if len(e.players) < 2 {
		return nil, fmt.Errorf("%w: %w (got %d)", ErrConfig, ErrTooFewPlayers, len(e.players))
	}
	if level < words.MinLevel || level > words.MaxLevel {
		return nil, fmt.Errorf("%w: %w: got %d", ErrConfig, words.ErrLevelOutOfRange, level)
	}
	if e.lives < 1 {
		return nil, fmt.Errorf("%w: lives must be positive, got %d", ErrConfig, e.lives)
	}
	if e.mode != ModeRound && e.mode != ModeContinuous {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrConfig, e.mode)
	}
	if e.scope != ScopePlayer && e.scope != ScopeGame {
		return nil, fmt.Errorf("%w: unknown scope %q", ErrConfig, e.scope)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no word source", ErrConfig)
	}

	e.level, e.lastSuccessful = level, level
	e.StartedAt = e.now()
	e.log = e.log.With().Str("game", e.ID).Logger()
	return e, nil
}

// Start draws the first challenge. It fails only if no level has a usable word.
func (e *Engine) Start() error {
	e.refreshWord()
	if e.word == "" {
		return fmt.Errorf("%w in any level", ErrNoWord)
	}
	e.log.Info().Int("level", e.level).Int("players", len(e.players)).Msg("game started")
	return nil
}

// SelectWord draws a word at the current level and makes it the challenge.
// Words with non-letter characters are redrawn a bounded number of times.
func (e *Engine) SelectWord() error {
	w, err := e.draw(e.level)
	if err != nil {
		return err
	}
	e.setWord(w)
	return nil
}

func (e *Engine) draw(level int) (string, error) {
	for i := 0; i < maxDrawAttempts; i++ {
		w, err := e.src.WordByLevel(level)
		if err != nil {
			return "", fmt.Errorf("%w at level %d: %w", ErrNoWord, level, err)
		}
		if w = strings.ToLower(strings.TrimSpace(w)); isAlpha(w) {
			return w, nil
		}
		e.log.Debug().Str("word", w).Int("level", level).Msg("redraw non-alphabetic word")
	}
	return "", fmt.Errorf("%w at level %d: %d draws were not alphabetic", ErrNoWord, level, maxDrawAttempts)
}

func (e *Engine) setWord(w string) {
	e.word = w
	e.fragment = Fragment(w)
	e.log.Debug().Str("word", w).Str("fragment", e.fragment).Int("level", e.level).Msg("challenge drawn")
}

// refreshWord replaces the challenge, falling back to the nearest level that
// has a word, and keeping the old challenge if none does. level is unchanged.
func (e *Engine) refreshWord() {
	err := e.SelectWord()
	if err == nil {
		return
	}
	e.log.Warn().Err(err).Int("level", e.level).Msg("word selection failed")
	for d := 1; d < words.MaxLevel; d++ {
		for _, lvl := range []int{e.level - d, e.level + d} {
			if lvl < words.MinLevel || lvl > words.MaxLevel {
				continue
			}
			if w, err := e.draw(lvl); err == nil {
				e.log.Info().Int("level", e.level).Int("from", lvl).Msg("challenge borrowed from nearby level")
				e.setWord(w)
				return
			}
		}
	}
	if e.word != "" {
		e.log.Warn().Str("fragment", e.fragment).Msg("no level has a usable word; keeping previous challenge")
	}
}

// Fragment returns up to three letters straddling the middle of word:
// word[m-1:m+2] with m = len/2, clipped to the word's bounds.
func Fragment(word string) string {
	r := []rune(word)
	m := len(r) / 2
	lo, hi := m-1, m+2
	if lo < 0 {
		lo = 0
	}
	if hi > len(r) {
		hi = len(r)
	}
	return string(r[lo:hi])
}

// NextTurn returns the player who acts now, skipping eliminated players.
// ok is false once the game is over.
func (e *Engine) NextTurn() (p *Player, ok bool) {
	if e.Over() {
		return nil, false
	}
	for !e.players[e.current].Alive() {
		e.advance()
	}
	return e.players[e.current], true
}

// advance moves the turn pointer; wrapping to the first seat ends a round.
func (e *Engine) advance() {
	e.current = (e.current + 1) % len(e.players)
	if e.current == 0 && !e.Over() {
		e.AdjustDifficulty()
	}
}

// Submit judges word for the player whose turn it is, then passes the turn.
//
// A word is accepted iff it contains the fragment, has not been used before
// (by this player, or by anyone under ScopeGame) and is known vocabulary.
// Anything else costs a life and spoils the round.
func (e *Engine) Submit(word string) (Outcome, error) {
	p, ok := e.NextTurn()
	if !ok {
		return Outcome{}, ErrGameOver
	}
	w := strings.ToLower(strings.TrimSpace(word))
	o := Outcome{Player: p.Name, Word: w, Fragment: e.fragment, Level: e.level}

	switch {
	case w == "":
		o.Reason = ReasonEmpty
	case !strings.Contains(w, e.fragment):
		o.Reason = ReasonMissingFragment
	case e.repeated(p, w):
		o.Reason = ReasonAlreadyUsed
	case !e.src.IsValid(w):
		o.Reason = ReasonUnknownWord
	}

	if o.Reason == ReasonNone {
		o.Result = ResultAccepted
		p.WordsUsed[w] = struct{}{}
		e.used[w] = struct{}{}
		e.log.Debug().Str("player", p.Name).Str("word", w).Msg("word accepted")
	} else {
		o.Result = ResultRejected
		e.fail(p)
		e.log.Debug().Str("player", p.Name).Str("word", w).Str("reason", string(o.Reason)).Msg("word rejected")
	}
	o.LivesLeft, o.Eliminated = p.Lives, !p.Alive()

	if o.Result == ResultAccepted && e.mode == ModeContinuous {
		e.refreshWord()
	}
	e.advance()
	return o, nil
}

// Timeout records that the current player did not answer in time.
func (e *Engine) Timeout() (Outcome, error) {
	p, ok := e.NextTurn()
	if !ok {
		return Outcome{}, ErrGameOver
	}
	e.fail(p)
	o := Outcome{
		Player:     p.Name,
		Fragment:   e.fragment,
		Result:     ResultTimeout,
		LivesLeft:  p.Lives,
		Eliminated: !p.Alive(),
		Level:      e.level,
	}
	e.log.Debug().Str("player", p.Name).Msg("turn timed out")
	e.advance()
	return o, nil
}

func (e *Engine) repeated(p *Player, w string) bool {
	if e.scope == ScopeGame {
		_, ok := e.used[w]
		return ok
	}
	return p.HasUsed(w)
}

func (e *Engine) fail(p *Player) {
	p.loseLife()
	e.allCorrect = false
	if !p.Alive() {
		e.log.Info().Str("player", p.Name).Int("round", e.rounds+1).Msg("player eliminated")
	}
}

// AdjustDifficulty closes a round. A clean round records the level as the
// last successful one and steps up (max 10); any failure rolls back to the
// last successful level. A new challenge is drawn either way.
func (e *Engine) AdjustDifficulty() {
	prev := e.level
	if e.allCorrect {
		e.lastSuccessful = e.level
		if e.level < words.MaxLevel {
			e.level++
		}
	} else {
		e.level = e.lastSuccessful
	}
	e.allCorrect = true
	e.rounds++
	e.log.Info().Int("round", e.rounds).Int("from", prev).Int("level", e.level).Msg("round over")
	e.refreshWord()
}

// Over reports whether at most one player still has lives.
func (e *Engine) Over() bool {
	alive := 0
	for _, p := range e.players {
		if p.Alive() {
			alive++
		}
	}
	return alive <= 1
}

// Winners returns every player with lives left; empty means no winner.
func (e *Engine) Winners() []*Player {
	var out []*Player
	for _, p := range e.players {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// Run plays the game to the end, asking in for each turn and reporting to n.
// It returns nil when the game finishes, or the first input error that is
// not a timeout (closed input, cancelled context).
func (e *Engine) Run(ctx context.Context, in Input, n Narrator) error {
	if e.word == "" {
		if err := e.Start(); err != nil {
			return err
		}
	}
	seen := e.rounds
	report := func() {
		if e.rounds != seen {
			seen = e.rounds
			n.RoundOver(e.rounds, e.level, e.fragment)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, ok := e.NextTurn()
		report()
		if !ok {
			break
		}
		word, err := in.Ask(ctx, p, e.fragment, e.timeout)
		var o Outcome
		switch {
		case errors.Is(err, ErrTimeout):
			o, _ = e.Timeout()
		case err != nil:
			e.log.Warn().Err(err).Str("player", p.Name).Msg("input ended")
			return err
		default:
			o, _ = e.Submit(word)
		}
		n.Turn(o)
		report()
	}

	e.finishedAt = e.now()
	winners := e.Winners()
	names := make([]string, 0, len(winners))
	for _, w := range winners {
		names = append(names, w.Name)
	}
	e.log.Info().Strs("winners", names).Int("rounds", e.rounds).Msg("game over")
	n.GameOver(winners)
	return nil
}

// Summary snapshots the game. FinishedAt is zero until Run completes.
func (e *Engine) Summary() Summary {
	s := Summary{
		ID:         e.ID,
		StartedAt:  e.StartedAt,
		FinishedAt: e.finishedAt,
		Mode:       e.mode,
		Rounds:     e.rounds,
		FinalLevel: e.level,
		Players:    make([]PlayerSummary, 0, len(e.players)),
		Winners:    []string{},
	}
	for _, p := range e.players {
		s.Players = append(s.Players, PlayerSummary{
			Name:   p.Name,
			Lives:  p.Lives,
			Words:  len(p.WordsUsed),
			Winner: p.Alive(),
		})
		if p.Alive() {
			s.Winners = append(s.Winners, p.Name)
		}
	}
	return s
}

// Players returns the roster in seating order.
func (e *Engine) Players() []*Player { return e.players }

// Level is the current difficulty.
func (e *Engine) Level() int { return e.level }

// LastSuccessfulLevel is the level of the most recent clean round
// (the starting level until one happens).
func (e *Engine) LastSuccessfulLevel() int { return e.lastSuccessful }

// Word is the current challenge word.
func (e *Engine) Word() string { return e.word }

// CurrentFragment is the fragment submissions must contain.
func (e *Engine) CurrentFragment() string { return e.fragment }

// Rounds is the number of completed rounds.
func (e *Engine) Rounds() int { return e.rounds }

// AllCorrect reports whether nobody has failed in the current round.
func (e *Engine) AllCorrect() bool { return e.allCorrect }

// Mode reports how challenges rotate.
func (e *Engine) Mode() Mode { return e.mode }

// TurnTimeout is the per-turn answer window.
func (e *Engine) TurnTimeout() time.Duration { return e.timeout }

// isAlpha reports whether s is non-empty and letters only.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
