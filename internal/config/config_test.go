package config

import (
	"testing"
	"time"

	"github.com/robalobadob/wordfrag/internal/game"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.TurnTimeout != 10*time.Second {
		t.Errorf("TurnTimeout = %s, want 10s", c.TurnTimeout)
	}
	if c.Lives != game.DefaultLives || c.Mode != game.ModeRound || c.Scope != game.ScopePlayer {
		t.Errorf("config = %+v", c)
	}
	if c.Port != "5175" || c.DailySalt != "local_dev_salt" || c.Daily || c.ResultsDB != "" {
		t.Errorf("config = %+v", c)
	}
}

func TestOverrides(t *testing.T) {
	c, err := FromEnv(env(map[string]string{
		"TURN_TIMEOUT": "15",
		"START_LIVES":  "5",
		"WORD_MODE":    "Continuous",
		"UNIQUE_WORDS": "game",
		"RESULTS_DB":   "./data/results.db",
		"DAILY":        "true",
		"LOG_LEVEL":    "debug",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.TurnTimeout != 15*time.Second || c.Lives != 5 {
		t.Errorf("timeout/lives = %s/%d", c.TurnTimeout, c.Lives)
	}
	if c.Mode != game.ModeContinuous || c.Scope != game.ScopeGame {
		t.Errorf("mode/scope = %s/%s", c.Mode, c.Scope)
	}
	if !c.Daily || c.ResultsDB != "./data/results.db" || c.LogLevel != "debug" {
		t.Errorf("config = %+v", c)
	}

	c, err = FromEnv(env(map[string]string{"TURN_TIMEOUT": "1m30s"}))
	if err != nil || c.TurnTimeout != 90*time.Second {
		t.Errorf("TURN_TIMEOUT=1m30s → (%s, %v)", c.TurnTimeout, err)
	}
}

func TestInvalidValues(t *testing.T) {
	cases := []map[string]string{
		{"TURN_TIMEOUT": "soon"},
		{"TURN_TIMEOUT": "0"},
		{"TURN_TIMEOUT": "-5s"},
		{"START_LIVES": "0"},
		{"START_LIVES": "many"},
		{"WORD_MODE": "blitz"},
		{"UNIQUE_WORDS": "team"},
		{"DAILY": "sometimes"},
	}
	for _, m := range cases {
		if _, err := FromEnv(env(m)); err == nil {
			t.Errorf("FromEnv(%v) accepted an invalid value", m)
		}
	}
}
