package words

import "gonum.org/v1/gonum/stat"

// LevelStats summarizes one difficulty level.
type LevelStats struct {
	Level    int     `json:"level"`
	Words    int     `json:"words"`
	MeanFreq float64 `json:"meanFrequency"`
	StdDev   float64 `json:"stdDevFrequency"`
}

// Stats summarizes a loaded vocabulary.
type Stats struct {
	Vocabulary int          `json:"vocabulary"` // distinct words loaded
	Bucketed   int          `json:"bucketed"`   // words assigned to a level
	Skipped    int          `json:"skipped"`    // malformed or duplicate rows
	Levels     []LevelStats `json:"levels"`
}

// Stats reports per-level word counts and frequency spread.
// Empty levels report zero mean and deviation.
func (c *Classifier) Stats() Stats {
	s := Stats{
		Vocabulary: len(c.vocab),
		Skipped:    c.skipped,
		Levels:     make([]LevelStats, 0, MaxLevel),
	}
	for lvl := MinLevel; lvl <= MaxLevel; lvl++ {
		ls := LevelStats{Level: lvl, Words: len(c.levels[lvl])}
		switch n := len(c.freqs[lvl]); {
		case n == 1:
			ls.MeanFreq = c.freqs[lvl][0]
		case n > 1:
			ls.MeanFreq, ls.StdDev = stat.MeanStdDev(c.freqs[lvl], nil)
		}
		s.Bucketed += ls.Words
		s.Levels = append(s.Levels, ls)
	}
	return s
}
