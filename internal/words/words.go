// internal/words/words.go
//
// Word classifier for the fragment game.
//
// Responsibilities:
//   - Load a frequency-annotated vocabulary (CSV: word, frequency) from a file,
//     any reader, or the embedded default list.
//   - Partition words into ten difficulty levels by fixed frequency thresholds.
//   - Supply WordByLevel (random draw, never consumed) and IsValid (membership).
//
// Levels:
//   - Level 1 holds the rarest words (hardest), level 10 the most common (easiest).
//   - Thresholds are 1000 wide: [0,1000) → 1, [1000,2000) → 2, ... ≥9000 → 10.
//   - Words with a frequency outside every threshold (negative counts) are kept
//     as valid vocabulary but never drawn.
//
// Constraints:
//   • Words are normalized to lowercase and trimmed.
//   • A word appearing twice keeps its first row; every word lives in one level.
//   • A Classifier is safe for concurrent use.

package words

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/wordfrag/assets"
)

const (
	MinLevel = 1
	MaxLevel = 10
)

var (
	// ErrLevelOutOfRange is returned for a level outside [MinLevel, MaxLevel].
	ErrLevelOutOfRange = errors.New("words: level must be between 1 and 10")
	// ErrEmptyLevel is returned when a level has no words to draw from.
	ErrEmptyLevel = errors.New("words: no words available for level")
)

// threshold maps the half-open frequency range [min, max) to a level.
type threshold struct {
	min, max int
	level    int
}

var thresholds = [...]threshold{
	{9000, math.MaxInt, 10},
	{8000, 9000, 9},
	{7000, 8000, 8},
	{6000, 7000, 7},
	{5000, 6000, 6},
	{4000, 5000, 5},
	{3000, 4000, 4},
	{2000, 3000, 3},
	{1000, 2000, 2},
	{0, 1000, 1},
}

// LevelFor returns the level a frequency count falls into.
// ok is false when the count matches no threshold.
func LevelFor(freq int) (level int, ok bool) {
	for _, t := range thresholds {
		if freq >= t.min && freq < t.max {
			return t.level, true
		}
	}
	return 0, false
}

// Classifier buckets a vocabulary into difficulty levels.
type Classifier struct {
	mu  sync.Mutex // guards rng
	rng *rand.Rand

	levels  [MaxLevel + 1][]string  // index 0 unused
	freqs   [MaxLevel + 1][]float64 // frequency counts, parallel to levels
	vocab   map[string]struct{}     // every loaded word, bucketed or not
	skipped int                     // malformed or duplicate rows
}

// Option configures a Classifier at load time.
type Option func(*Classifier)

// WithRand sets the random source used by WordByLevel.
func WithRand(r *rand.Rand) Option {
	return func(c *Classifier) { c.rng = r }
}

// WithSeed makes WordByLevel deterministic for the given seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Load reads a CSV vocabulary with a header row naming "word" and "frequency"
// columns (any order, extra columns ignored). Rows with an empty word or a
// non-integer frequency are skipped.
func Load(r io.Reader, opts ...Option) (*Classifier, error) {
	c := &Classifier{vocab: make(map[string]struct{})}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		now := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(now, now>>17))
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("words: read header: %w", err)
	}
	wordCol, freqCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "word":
			wordCol = i
		case "frequency":
			freqCol = i
		}
	}
	if wordCol < 0 || freqCol < 0 {
		return nil, fmt.Errorf("words: header must name word and frequency columns, got %q", header)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				c.skipped++
				continue
			}
			return nil, fmt.Errorf("words: read row: %w", err)
		}
		if len(rec) <= wordCol || len(rec) <= freqCol {
			c.skipped++
			continue
		}
		w := strings.ToLower(strings.TrimSpace(rec[wordCol]))
		freq, err := strconv.Atoi(strings.TrimSpace(rec[freqCol]))
		if w == "" || err != nil {
			c.skipped++
			continue
		}
		if _, dup := c.vocab[w]; dup {
			c.skipped++
			continue
		}
		c.vocab[w] = struct{}{}
		if lvl, ok := LevelFor(freq); ok {
			c.levels[lvl] = append(c.levels[lvl], w)
			c.freqs[lvl] = append(c.freqs[lvl], float64(freq))
		}
	}

	if len(c.vocab) == 0 {
		return nil, errors.New("words: vocabulary is empty")
	}
	return c, nil
}

// LoadFile loads a CSV vocabulary from path.
func LoadFile(path string, opts ...Option) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, opts...)
}

// LoadDefault loads the vocabulary bundled with the binary.
func LoadDefault(opts ...Option) (*Classifier, error) {
	f, err := assets.OpenFrequencyList()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, opts...)
}

// WordByLevel returns a uniformly random word from the given level.
// Words are not removed, so repeated calls may return the same word.
func (c *Classifier) WordByLevel(level int) (string, error) {
	if level < MinLevel || level > MaxLevel {
		return "", fmt.Errorf("%w: got %d", ErrLevelOutOfRange, level)
	}
	bucket := c.levels[level]
	if len(bucket) == 0 {
		return "", fmt.Errorf("%w %d", ErrEmptyLevel, level)
	}
	c.mu.Lock()
	i := c.rng.IntN(len(bucket))
	c.mu.Unlock()
	return bucket[i], nil
}

// IsValid reports whether word exists anywhere in the vocabulary, ignoring case.
func (c *Classifier) IsValid(word string) bool {
	_, ok := c.vocab[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// Count returns how many words sit in level (0 when out of range).
func (c *Classifier) Count(level int) int {
	if level < MinLevel || level > MaxLevel {
		return 0
	}
	return len(c.levels[level])
}
