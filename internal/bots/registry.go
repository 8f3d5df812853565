// Package bots builds a reward bot by name.
package bots

import (
	"fmt"

	"github.com/set-night/ibisbots/internal/bots/dilemma"
	"github.com/set-night/ibisbots/internal/bots/holiday"
	"github.com/set-night/ibisbots/internal/bots/lastword"
	"github.com/set-night/ibisbots/internal/bots/referral"
	"github.com/set-night/ibisbots/internal/bots/shoutout"
	"github.com/set-night/ibisbots/internal/bots/story"
	"github.com/set-night/ibisbots/internal/bots/streak"
	"github.com/set-night/ibisbots/internal/bots/vocabulary"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/service"
	"github.com/set-night/ibisbots/internal/textgen"
)

// Extras are the collaborators only some bots use. Each is built on demand so
// a bot that does not need it never pays for loading it.
type Extras struct {
	Generator func() (textgen.Generator, error)
	Words     func() (vocabulary.WordCounter, error)
}

// New builds the bot called name from its parameters.
func New(name string, deps service.Deps, params config.BotParams, extras Extras) (service.Bot, error) {
	switch name {
	case config.BotStreak:
		return built(streak.New(deps, params.Streak))
	case config.BotHoliday:
		return built(holiday.New(deps, params.Holiday))
	case config.BotReferral:
		return built(referral.New(deps, params.Referral))
	case config.BotLastWord:
		return built(lastword.New(deps, params.LastWord))
	case config.BotDilemma:
		return built(dilemma.New(deps, params.Dilemma))
	case config.BotShoutout:
		return built(shoutout.New(deps, params.Shoutout))
	case config.BotVocabulary:
		if extras.Words == nil {
			return nil, fmt.Errorf("vocabulary needs a word counter: %w", domain.ErrInvalidParams)
		}
		words, err := extras.Words()
		if err != nil {
			return nil, err
		}
		return built(vocabulary.New(deps, params.Vocabulary, words))
	case config.BotStory:
		if extras.Generator == nil {
			return nil, fmt.Errorf("story needs a text generator: %w", domain.ErrInvalidParams)
		}
		gen, err := extras.Generator()
		if err != nil {
			return nil, err
		}
		return built(story.New(deps, params.Story, gen))
	default:
		return nil, fmt.Errorf("bot %q: %w", name, domain.ErrUnknownBot)
	}
}

func built[B service.Bot](b B, err error) (service.Bot, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
