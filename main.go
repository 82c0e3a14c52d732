package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordfrag/internal/config"
	"github.com/robalobadob/wordfrag/internal/console"
	"github.com/robalobadob/wordfrag/internal/daily"
	"github.com/robalobadob/wordfrag/internal/game"
	"github.com/robalobadob/wordfrag/internal/httpserver"
	"github.com/robalobadob/wordfrag/internal/results"
	"github.com/robalobadob/wordfrag/internal/words"
)

const usage = `usage: wordfrag [command]

commands:
  play    play a game in this terminal (default)
  serve   serve leaderboard and vocabulary stats over HTTP
  words   print how the vocabulary is spread over levels
`

func main() {
	cmd := "play"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.LogLevel, cmd)

	switch cmd {
	case "play":
		err = play(cfg)
	case "serve":
		err = serve(cfg)
	case "words":
		err = printWordStats(cfg, os.Stdout)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("exited")
	}
}

// setupLogging applies LOG_LEVEL (quiet by default while playing so logs do
// not interleave with prompts) and uses a readable writer on terminals.
func setupLogging(level, cmd string) {
	if level == "" {
		level = "info"
		if cmd == "play" {
			level = "warn"
		}
	}
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if fd := os.Stderr.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: colorable.NewColorableStderr(), TimeFormat: time.Kitchen})
	}
}

// loadWords loads the configured vocabulary, seeded by date in daily mode.
func loadWords(cfg config.Config) (*words.Classifier, error) {
	var opts []words.Option
	if cfg.Daily {
		now := time.Now()
		opts = append(opts, words.WithSeed(daily.Seed(now, cfg.DailySalt)))
		log.Info().Str("date", daily.DateKey(now)).Msg("daily word sequence")
	}
	var (
		c   *words.Classifier
		err error
	)
	if cfg.WordsFile != "" {
		c, err = words.LoadFile(cfg.WordsFile, opts...)
	} else {
		c, err = words.LoadDefault(opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("load word list: %w", err)
	}
	s := c.Stats()
	log.Info().Int("vocabulary", s.Vocabulary).Int("bucketed", s.Bucketed).Int("skipped", s.Skipped).Msg("word list loaded")
	return c, nil
}

// openStore returns the SQLite store when RESULTS_DB is set, memory otherwise.
func openStore(cfg config.Config) (results.Store, func(), error) {
	if cfg.ResultsDB == "" {
		return results.NewMemoryStore(), func() {}, nil
	}
	db, err := results.OpenSQLite(cfg.ResultsDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open results db: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

func play(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	vocab, err := loadWords(cfg)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	out := colorable.NewColorableStdout()
	in := console.NewLineReader(os.Stdin)
	narrator := console.NewNarrator(out)

	var eng *game.Engine
	for eng == nil {
		names, err := console.PromptNames(ctx, in, out)
		if err != nil {
			return inputErr(err)
		}
		level := console.PromptLevel(ctx, in, out)
		eng, err = game.New(names, level, vocab,
			game.WithLives(cfg.Lives),
			game.WithMode(cfg.Mode),
			game.WithUniqueWords(cfg.Scope),
			game.WithTurnTimeout(cfg.TurnTimeout),
		)
		if errors.Is(err, game.ErrConfig) {
			fmt.Fprintln(out, err)
			continue
		}
		if err != nil {
			return err
		}
	}

	if err := eng.Start(); err != nil {
		fmt.Fprintln(out, "No words available to play with.")
		return err
	}
	narrator.Welcome(eng.Players(), eng.Level(), eng.CurrentFragment(), eng.TurnTimeout())

	if err := eng.Run(ctx, console.NewPrompter(in, out), narrator); err != nil {
		fmt.Fprintln(out, "\nGame abandoned.")
		return inputErr(err)
	}

	if err := store.Save(ctx, eng.Summary()); err != nil {
		log.Warn().Err(err).Str("game", eng.ID).Msg("save result")
		return nil
	}
	if top, err := store.Leaderboard(ctx, 5); err == nil && len(top) > 0 {
		fmt.Fprintln(out, "\nLeaderboard:")
		for i, r := range top {
			fmt.Fprintf(out, "%2d. %-16s %3d wins / %d games\n", i+1, r.Name, r.Wins, r.Played)
		}
	}
	return nil
}

// inputErr treats closed input and Ctrl-C as a normal way to leave.
func inputErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serve(cfg config.Config) error {
	vocab, err := loadWords(cfg)
	if err != nil {
		return err
	}
	if cfg.ResultsDB == "" {
		log.Warn().Msg("RESULTS_DB not set; serving an empty in-memory store")
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := httpserver.New(store, vocab)
	log.Info().Str("port", cfg.Port).Msg("starting stats server")
	return srv.Start(":" + cfg.Port)
}

func printWordStats(cfg config.Config, out io.Writer) error {
	vocab, err := loadWords(cfg)
	if err != nil {
		return err
	}
	s := vocab.Stats()
	fmt.Fprintf(out, "%d words (%d in levels, %d rows skipped)\n\n", s.Vocabulary, s.Bucketed, s.Skipped)
	fmt.Fprintln(out, "level  words  mean freq  std dev")
	for _, l := range s.Levels {
		fmt.Fprintf(out, "%5d  %5d  %9.0f  %7.0f\n", l.Level, l.Words, l.MeanFreq, l.StdDev)
	}
	return nil
}
