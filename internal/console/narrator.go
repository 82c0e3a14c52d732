package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robalobadob/wordfrag/internal/game"
)

// Narrator prints game events for the table. It implements game.Narrator.
type Narrator struct {
	out io.Writer
}

// NewNarrator writes to out.
func NewNarrator(out io.Writer) *Narrator { return &Narrator{out: out} }

// Welcome announces the first challenge.
func (n *Narrator) Welcome(players []*game.Player, level int, fragment string, timeout time.Duration) {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	fmt.Fprintf(n.out, "\n🎮 %s: you have %s per turn.\n", strings.Join(names, ", "), timeout.Round(time.Second))
	fmt.Fprintf(n.out, "📶 Level %d. First fragment: %s\n\n", level, strings.ToUpper(fragment))
}

func (n *Narrator) Turn(o game.Outcome) {
	switch o.Result {
	case game.ResultAccepted:
		fmt.Fprintf(n.out, "✅ %q accepted.\n", o.Word)
	case game.ResultTimeout:
		fmt.Fprintf(n.out, "⏰ %s ran out of time. %s\n", o.Player, hearts(o.LivesLeft))
	default:
		fmt.Fprintf(n.out, "❌ %s %s\n", rejection(o), hearts(o.LivesLeft))
	}
	if o.Eliminated {
		fmt.Fprintf(n.out, "💀 %s is out!\n", o.Player)
	}
}

func rejection(o game.Outcome) string {
	switch o.Reason {
	case game.ReasonEmpty:
		return "No word given."
	case game.ReasonMissingFragment:
		return fmt.Sprintf("%q does not contain %s.", o.Word, strings.ToUpper(o.Fragment))
	case game.ReasonAlreadyUsed:
		return fmt.Sprintf("%q was already used.", o.Word)
	case game.ReasonUnknownWord:
		return fmt.Sprintf("%q is not in the word list.", o.Word)
	}
	return fmt.Sprintf("%q rejected.", o.Word)
}

func (n *Narrator) RoundOver(round, level int, fragment string) {
	fmt.Fprintf(n.out, "\n🔁 Round %d over. Level %d, new fragment: %s\n\n", round, level, strings.ToUpper(fragment))
}

func (n *Narrator) GameOver(winners []*game.Player) {
	if len(winners) == 0 {
		fmt.Fprintln(n.out, "\nGame over. No winner this time.")
		return
	}
	names := make([]string, 0, len(winners))
	for _, w := range winners {
		names = append(names, w.Name)
	}
	fmt.Fprintf(n.out, "\n🏆 Winner: %s\n", strings.Join(names, ", "))
}

// hearts renders remaining lives.
func hearts(lives int) string {
	if lives <= 0 {
		return "🖤"
	}
	return strings.Repeat("❤️", lives)
}
