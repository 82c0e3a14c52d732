package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/wordfrag/internal/game"
)

func TestReadLineReturnsLines(t *testing.T) {
	lr := NewLineReader(strings.NewReader("catfish\r\nscatter\n"))
	ctx := context.Background()
	for _, want := range []string{"catfish", "scatter"} {
		got, err := lr.ReadLine(ctx, time.Second)
		if err != nil || got != want {
			t.Fatalf("ReadLine = (%q, %v), want %q", got, err, want)
		}
	}
	if _, err := lr.ReadLine(ctx, time.Second); !errors.Is(err, io.EOF) {
		t.Errorf("ReadLine at end = %v, want io.EOF", err)
	}
}

func TestReadLineTimesOut(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	lr := NewLineReader(pr)
	lr.grace = 0

	start := time.Now()
	_, err := lr.ReadLine(context.Background(), 30*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}

	// The reader is still usable after a timeout.
	go func() {
		time.Sleep(20 * time.Millisecond)
		pw.Write([]byte("next\n"))
	}()
	got, err := lr.ReadLine(context.Background(), time.Second)
	if err != nil || got != "next" {
		t.Errorf("ReadLine after timeout = (%q, %v), want next", got, err)
	}
}

func TestReadLineHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	lr := NewLineReader(pr)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := lr.ReadLine(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// waitBuffered blocks until the reader goroutine has queued n lines.
func waitBuffered(t *testing.T, lr *LineReader, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for len(lr.lines) < n {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d lines buffered", len(lr.lines), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBufferedLinesAreKept(t *testing.T) {
	lr := NewLineReader(strings.NewReader("catfish\nscatter\n"))
	waitBuffered(t, lr, 2)
	for _, want := range []string{"catfish", "scatter"} {
		got, err := lr.ReadLine(context.Background(), time.Second)
		if err != nil || got != want {
			t.Fatalf("ReadLine = (%q, %v), want %q", got, err, want)
		}
	}
	if lr.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", lr.Dropped())
	}
}

func TestLateLineWithinGraceIsSkipped(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	lr := NewLineReader(pr)
	lr.grace = 200 * time.Millisecond

	if _, err := lr.ReadLine(context.Background(), 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	go func() {
		pw.Write([]byte("late\n"))
		time.Sleep(400 * time.Millisecond)
		pw.Write([]byte("answer\n"))
	}()
	got, err := lr.ReadLine(context.Background(), 2*time.Second)
	if err != nil || got != "answer" {
		t.Fatalf("ReadLine = (%q, %v), want answer", got, err)
	}
	if lr.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", lr.Dropped())
	}
}

func TestLineBetweenTimeoutAndNextReadIsSkipped(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	lr := NewLineReader(pr)
	lr.grace = 0

	if _, err := lr.ReadLine(context.Background(), 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	go pw.Write([]byte("late\n"))
	waitBuffered(t, lr, 1)
	time.Sleep(5 * time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		pw.Write([]byte("answer\n"))
	}()
	got, err := lr.ReadLine(context.Background(), 2*time.Second)
	if err != nil || got != "answer" {
		t.Fatalf("ReadLine = (%q, %v), want answer", got, err)
	}
	if lr.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", lr.Dropped())
	}
}

func TestPrompterMapsTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	p := NewPrompter(NewLineReader(pr), &out)

	_, err := p.Ask(context.Background(), game.NewPlayer("Ann", 2), "cat", 20*time.Millisecond)
	if !errors.Is(err, game.ErrTimeout) {
		t.Fatalf("err = %v, want game.ErrTimeout", err)
	}
	if !strings.Contains(out.String(), "Ann") || !strings.Contains(out.String(), `"CAT"`) {
		t.Errorf("prompt = %q, want player name and fragment", out.String())
	}
}

func TestPrompterKeepsTypedAheadAnswer(t *testing.T) {
	var out bytes.Buffer
	lr := NewLineReader(strings.NewReader("catfish\n"))
	waitBuffered(t, lr, 1)

	got, err := NewPrompter(lr, &out).Ask(context.Background(), game.NewPlayer("Ann", 3), "cat", time.Second)
	if err != nil || got != "catfish" {
		t.Errorf("Ask = (%q, %v), want catfish", got, err)
	}
	if !strings.Contains(out.String(), "Ann") {
		t.Errorf("prompt = %q, want player name", out.String())
	}
}

// locateSource always deals "locate" (fragment "cat") and accepts any word.
type locateSource struct{}

func (locateSource) WordByLevel(int) (string, error) { return "locate", nil }
func (locateSource) IsValid(string) bool { return true }

func TestRunPlaysPipedAnswers(t *testing.T) {
	lr := NewLineReader(strings.NewReader("catfish\nscatter\ncattle\n"))
	waitBuffered(t, lr, 3)

	e, err := game.New([]string{"Ann", "Bob"}, 5, locateSource{}, game.WithTurnTimeout(time.Second))
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	var out bytes.Buffer
	err = e.Run(context.Background(), NewPrompter(lr, &out), NewNarrator(&out))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run = %v, want io.EOF once the answers run out", err)
	}

	ann, bob := e.Players()[0], e.Players()[1]
	if len(ann.WordsUsed) != 2 || !ann.HasUsed("catfish") || !ann.HasUsed("cattle") {
		t.Errorf("Ann used %v, want catfish and cattle", ann.WordsUsed)
	}
	if len(bob.WordsUsed) != 1 || !bob.HasUsed("scatter") {
		t.Errorf("Bob used %v, want scatter", bob.WordsUsed)
	}
	if ann.Lives != game.DefaultLives || bob.Lives != game.DefaultLives {
		t.Errorf("lives = %d/%d, want none lost", ann.Lives, bob.Lives)
	}
}

func TestSplitNames(t *testing.T) {
	cases := map[string][]string{
		"Ann, Bob":         {"Ann", "Bob"},
		" Ann ,, Bob ,Cid": {"Ann", "Bob", "Cid"},
		"Solo":             {"Solo"},
		" , ":              nil,
	}
	for in, want := range cases {
		if got := SplitNames(in); !reflect.DeepEqual(got, want) {
			t.Errorf("SplitNames(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPromptNamesRepromptsForTwoPlayers(t *testing.T) {
	var out bytes.Buffer
	lr := NewLineReader(strings.NewReader("Ann\nAnn, Bob\n"))
	names, err := PromptNames(context.Background(), lr, &out)
	if err != nil {
		t.Fatalf("PromptNames: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Ann", "Bob"}) {
		t.Errorf("names = %q", names)
	}
	if !strings.Contains(out.String(), "At least two players") {
		t.Errorf("no re-prompt message in %q", out.String())
	}
}

func TestPromptLevel(t *testing.T) {
	cases := map[string]int{
		"7\n":                7,
		"\n":                 DefaultLevel,
		"0\n11\nx\n":         DefaultLevel,
		"abc\n3\n":           3,
		"":                   DefaultLevel,
		" 10 \n":             10,
		"eleven\n-1\n2\n9\n": 2,
	}
	for in, want := range cases {
		var out bytes.Buffer
		got := PromptLevel(context.Background(), NewLineReader(strings.NewReader(in)), &out)
		if got != want {
			t.Errorf("PromptLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNarrator(t *testing.T) {
	var out bytes.Buffer
	n := NewNarrator(&out)
	n.Turn(game.Outcome{Player: "Ann", Word: "catfish", Result: game.ResultAccepted, LivesLeft: 3})
	n.Turn(game.Outcome{Player: "Bob", Word: "dog", Fragment: "cat", Result: game.ResultRejected,
		Reason: game.ReasonMissingFragment, LivesLeft: 0, Eliminated: true})
	n.Turn(game.Outcome{Player: "Cid", Result: game.ResultTimeout, LivesLeft: 1})
	n.RoundOver(1, 6, "shi")
	n.GameOver([]*game.Player{game.NewPlayer("Ann", 3), game.NewPlayer("Cid", 1)})

	s := out.String()
	for _, want := range []string{
		`"catfish" accepted`,
		`"dog" does not contain CAT`,
		"Bob is out!",
		"Cid ran out of time",
		"Round 1 over. Level 6, new fragment: SHI",
		"Winner: Ann, Cid",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}

	out.Reset()
	n.GameOver(nil)
	if !strings.Contains(out.String(), "No winner") {
		t.Errorf("no-winner output = %q", out.String())
	}
}
