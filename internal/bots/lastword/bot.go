// Package lastword runs a game where the last person to reply before the
// countdown runs out wins the pot.
package lastword

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
)

const (
	scratchVersion = 1

	// the description is refreshed at least this often while a round runs
	refreshInterval = time.Hour
)

// State holds the opening quote of the round.
type State struct {
	scratch.Versioned
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

type Bot struct {
	deps      service.Deps
	params    config.LastWordParams
	countdown time.Duration
	activity  *domain.Activity
	state     State
}

func New(deps service.Deps, params config.LastWordParams) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Bot{
		deps:      deps,
		params:    params,
		countdown: time.Duration(params.CountdownDays) * 24 * time.Hour,
	}, nil
}

func (b *Bot) Name() string { return config.BotLastWord }

func (b *Bot) Init(ctx context.Context) error {
	activity, _, err := b.deps.Activities.FindOrCreate(ctx, b.newRound)
	if err != nil {
		return err
	}
	return b.use(activity)
}

func (b *Bot) use(activity *domain.Activity) error {
	var state State
	if err := scratch.Decode(activity.Scratch, &state, scratchVersion); err != nil {
		return fmt.Errorf("round %s: %w", activity.ID, err)
	}
	b.activity, b.state = activity, state
	return nil
}

func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	now := b.deps.Clock.Now()

	tree, err := b.deps.API.CommentTree(ctx, b.activity.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("load round replies: %w", err)
	}
	replies := humanReplies(tree)
	if len(replies) == 0 {
		return now.Add(min(b.countdown, refreshInterval)), nil
	}

	last := replies[len(replies)-1]
	participants := countParticipants(replies)
	amount := b.Pot(participants, last.Created.Sub(b.activity.Created))
	end := last.Created.Add(b.countdown)

	description := fmt.Sprintf(activityDescription,
		b.params.CountdownDays,
		b.state.Quote,
		b.state.Author,
		last.Description,
		last.User.Name,
		participants,
		domain.FormatAmount(amount),
		b.deps.Clock.Local(end).Format(timeFormat),
	)

	if now.Before(end) {
		activity, err := b.deps.Activities.Update(ctx, platform.ActivityInput{
			ID:          b.activity.ID,
			Description: platform.String(description),
			RewardMin:   platform.Int64(amount),
		})
		if err != nil {
			return time.Time{}, err
		}
		b.activity = activity
		return minTime(end, now.Add(refreshInterval)), nil
	}

	reward, _, err := b.deps.Rewards.CreateOnce(ctx, "lastword:"+b.activity.ID,
		platform.RewardFilter{RelatedActivity: b.activity.ID},
		platform.RewardInput{
			Target:          last.User.ID,
			Amount:          amount,
			Description:     fmt.Sprintf(rewardDescription, last.Description, last.User.Name),
			RelatedActivity: b.activity.ID,
		})
	if err != nil {
		return time.Time{}, err
	}
	if _, err := b.deps.Activities.Close(ctx, b.activity.ID, platform.ActivityInput{
		Description: platform.String(fmt.Sprintf(closing, description, last.User.Username, b.deps.API.AppLink(reward.ID))),
		RewardMin:   platform.Int64(amount),
	}); err != nil {
		return time.Time{}, err
	}

	in, err := b.newRound(ctx)
	if err != nil {
		return time.Time{}, err
	}
	in.Active = platform.Bool(true)
	activity, err := b.deps.Activities.Create(ctx, in)
	if err != nil {
		return time.Time{}, err
	}
	if err := b.use(activity); err != nil {
		return time.Time{}, err
	}
	return now.Add(min(b.countdown, refreshInterval)), nil
}

// Pot grows with every participant and with every week the round has run,
// capped at the maximum.
func (b *Bot) Pot(participants int, elapsed time.Duration) int64 {
	days := int(elapsed.Hours() / 24)
	weeks := int64(math.RoundToEven(float64(days) / 7))
	amount := b.params.RewardMin +
		b.params.RewardIncrement*int64(participants) +
		b.params.RewardIncrement*weeks
	return min(amount, b.params.RewardMax)
}

func (b *Bot) newRound(ctx context.Context) (platform.ActivityInput, error) {
	node, err := b.deps.Activities.Node(ctx)
	if err != nil {
		return platform.ActivityInput{}, err
	}
	quote, err := b.deps.API.Quote(ctx)
	if err != nil {
		return platform.ActivityInput{}, fmt.Errorf("fetch opening quote: %w", err)
	}
	raw, err := scratch.Encode(State{
		Versioned: scratch.Versioned{Version: scratchVersion},
		Quote:     quote.Quote,
		Author:    quote.Author,
	})
	if err != nil {
		return platform.ActivityInput{}, err
	}

	end := b.deps.Clock.Now().Add(b.countdown)
	return platform.ActivityInput{
		Title: platform.String(fmt.Sprintf(activityTitle, node.ActivityCount+1)),
		Description: platform.String(fmt.Sprintf(activityDescription,
			b.params.CountdownDays,
			quote.Quote,
			quote.Author,
			fmt.Sprintf(placeholderWords, domain.FormatAmount(b.params.RewardMin)),
			placeholderLeader,
			0,
			domain.FormatAmount(b.params.RewardMin),
			end.Format(timeFormat),
		)),
		RewardMin: platform.Int64(b.params.RewardMin),
		Scratch:   &raw,
	}, nil
}

// humanReplies flattens the reply tree and keeps replies written by people,
// oldest first.
func humanReplies(tree []domain.Comment) []domain.Comment {
	var out []domain.Comment
	var walk func([]domain.Comment)
	walk = func(level []domain.Comment) {
		for _, c := range level {
			walk(c.Replies)
			if c.User.IsHuman() {
				c.Replies = nil
				out = append(out, c)
			}
		}
	}
	walk(tree)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

func countParticipants(replies []domain.Comment) int {
	seen := map[string]bool{}
	for _, c := range replies {
		seen[c.User.ID] = true
	}
	return len(seen)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
