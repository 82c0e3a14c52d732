// internal/console/input.go
//
// Line input with a per-read deadline.
//
// A single goroutine owns the underlying reader and forwards complete lines
// into a buffered channel. Reads race that channel against a timer, so a read
// that times out leaves nothing blocked behind it: the next read simply picks
// up from the same channel. Each line is stamped with its arrival time so a
// line typed just after a turn expired is not taken as the next answer.

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/wordfrag/internal/game"
)

// ErrTimeout is returned by ReadLine when no line arrives in time.
var ErrTimeout = errors.New("console: read timed out")

const lineBuffer = 16

// LateGrace is how long after a timed-out read a new line is still taken as
// the late answer to that read rather than an answer to the next one.
const LateGrace = 500 * time.Millisecond

// line is one input line and the time the reader goroutine received it.
type line struct {
	text string
	at   time.Time
}

// LineReader delivers lines from an io.Reader with optional deadlines.
// ReadLine must not be called concurrently.
type LineReader struct {
	lines chan line
	err   error // terminal read error (io.EOF on clean close); valid once lines is closed
	now   func() time.Time
	grace time.Duration

	// lateUntil is set when a read times out: lines received before it
	// belong to the expired read and are skipped by the next one.
	lateUntil time.Time
	dropped   int
}

// NewLineReader starts reading r in the background.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{
		lines: make(chan line, lineBuffer),
		now:   time.Now,
		grace: LateGrace,
	}
	go lr.pump(r)
	return lr
}

func (lr *LineReader) pump(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lr.lines <- line{text: sc.Text(), at: lr.now()}
	}
	lr.err = sc.Err()
	if lr.err == nil {
		lr.err = io.EOF
	}
	close(lr.lines)
}

// ReadLine waits for the next line. A non-positive timeout waits until a line
// arrives, the input ends or ctx is done.
//
// Lines already buffered are returned in order, so answers typed ahead or
// piped in are kept. After a read times out, lines received between the
// timeout and the start of this read (or within the grace period after the
// timeout, whichever is later) are late answers to the expired read and are
// skipped.
func (lr *LineReader) ReadLine(ctx context.Context, timeout time.Duration) (string, error) {
	if !lr.lateUntil.IsZero() {
		if start := lr.now(); start.After(lr.lateUntil) {
			lr.lateUntil = start
		}
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		select {
		case l, ok := <-lr.lines:
			if !ok {
				return "", lr.err
			}
			if l.at.Before(lr.lateUntil) {
				lr.dropped++
				continue
			}
			lr.lateUntil = time.Time{}
			return strings.TrimRight(l.text, "\r"), nil
		case <-expired:
			lr.lateUntil = lr.now().Add(lr.grace)
			return "", ErrTimeout
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Dropped reports how many late lines have been skipped so far.
func (lr *LineReader) Dropped() int { return lr.dropped }

// Prompter asks players for words on a terminal. It implements game.Input.
type Prompter struct {
	in  *LineReader
	out io.Writer
}

// NewPrompter writes prompts to out and reads answers from in.
func NewPrompter(in *LineReader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Ask prompts p for a word containing fragment and waits up to timeout.
func (pr *Prompter) Ask(ctx context.Context, p *game.Player, fragment string, timeout time.Duration) (string, error) {
	fmt.Fprintf(pr.out, "%s %s, type a word containing %q (%s): ",
		hearts(p.Lives), p.Name, strings.ToUpper(fragment), timeout.Round(time.Second))
	line, err := pr.in.ReadLine(ctx, timeout)
	if errors.Is(err, ErrTimeout) {
		fmt.Fprintln(pr.out)
		return "", game.ErrTimeout
	}
	return line, err
}

// SplitNames parses a comma-separated list, trimming blanks away.
func SplitNames(line string) []string {
	var out []string
	for _, n := range strings.Split(line, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// PromptNames asks for player names until at least two are given.
func PromptNames(ctx context.Context, in *LineReader, out io.Writer) ([]string, error) {
	for {
		fmt.Fprint(out, "Enter player names separated by commas: ")
		line, err := in.ReadLine(ctx, 0)
		if err != nil {
			return nil, err
		}
		if names := SplitNames(line); len(names) >= 2 {
			return names, nil
		}
		fmt.Fprintln(out, "At least two players are needed.")
	}
}

// DefaultLevel is used when no valid starting level is entered.
const DefaultLevel = 5

const levelAttempts = 3

// PromptLevel asks for a starting level in [1,10]. An empty answer, closed
// input or three bad answers fall back to DefaultLevel.
func PromptLevel(ctx context.Context, in *LineReader, out io.Writer) int {
	for i := 0; i < levelAttempts; i++ {
		fmt.Fprintf(out, "Starting level 1-10 [%d]: ", DefaultLevel)
		line, err := in.ReadLine(ctx, 0)
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return DefaultLevel
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= 10 {
			return n
		}
		fmt.Fprintln(out, "Please enter a whole number from 1 to 10.")
	}
	fmt.Fprintf(out, "Using level %d.\n", DefaultLevel)
	return DefaultLevel
}
