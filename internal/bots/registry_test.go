package bots

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/set-night/ibisbots/internal/bots/bottest"
	"github.com/set-night/ibisbots/internal/bots/vocabulary"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/textgen"
)

type echo struct{}

func (echo) Generate(_ context.Context, prompt string, _ int) (string, error) { return prompt, nil }

type noWords struct{}

func (noWords) WordCount(...string) (map[string]int, error) { return map[string]int{}, nil }

func extras() Extras {
	return Extras{
		Generator: func() (textgen.Generator, error) { return echo{}, nil },
		Words:     func() (vocabulary.WordCounter, error) { return noWords{}, nil },
	}
}

func TestNewBuildsEveryBot(t *testing.T) {
	for _, name := range config.BotNames {
		t.Run(name, func(t *testing.T) {
			env := bottest.New(name, time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC))
			b, err := New(name, env.Deps, config.DefaultBotParams(), extras())
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if b.Name() != name {
				t.Fatalf("name=%q", b.Name())
			}
		})
	}
}

func TestNewUnknownBot(t *testing.T) {
	env := bottest.New("nope", time.Now())
	_, err := New("nope", env.Deps, config.DefaultBotParams(), extras())
	if !errors.Is(err, domain.ErrUnknownBot) {
		t.Fatalf("err=%v", err)
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	env := bottest.New(config.BotDilemma, time.Now())
	params := config.DefaultBotParams()
	params.Dilemma.MinPlayers = 1
	b, err := New(config.BotDilemma, env.Deps, params, extras())
	if !errors.Is(err, domain.ErrInvalidParams) {
		t.Fatalf("err=%v", err)
	}
	if b != nil {
		t.Fatal("got a bot alongside the error")
	}
}

func TestNewNeedsExtras(t *testing.T) {
	env := bottest.New(config.BotStory, time.Now())
	_, err := New(config.BotStory, env.Deps, config.DefaultBotParams(), Extras{})
	if !errors.Is(err, domain.ErrInvalidParams) {
		t.Fatalf("story err=%v", err)
	}

	failing := extras()
	failing.Words = func() (vocabulary.WordCounter, error) { return nil, errors.New("no dictionary") }
	_, err = New(config.BotVocabulary, env.Deps, config.DefaultBotParams(), failing)
	if err == nil || !strings.Contains(err.Error(), "no dictionary") {
		t.Fatalf("vocabulary err=%v", err)
	}
}
