// Package shoutout pays the people that others mention in replies to a
// monthly shoutout activity.
package shoutout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
)

const (
	scratchVersion = 1
	monthFormat    = "2006-01"
	pollInterval   = time.Hour
)

// State records the month the activity belongs to.
type State struct {
	scratch.Versioned
	Month string `json:"month"`
}

type Bot struct {
	deps     service.Deps
	params   config.ShoutoutParams
	activity *domain.Activity
	month    string
}

func New(deps service.Deps, params config.ShoutoutParams) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Bot{deps: deps, params: params}, nil
}

func (b *Bot) Name() string { return config.BotShoutout }

func (b *Bot) Init(ctx context.Context) error {
	activity, _, err := b.deps.Activities.FindOrCreate(ctx, b.newMonth)
	if err != nil {
		return err
	}
	return b.use(activity)
}

func (b *Bot) use(activity *domain.Activity) error {
	var state State
	if !scratch.IsEmpty(activity.Scratch) {
		if err := scratch.Decode(activity.Scratch, &state, scratchVersion); err != nil {
			return fmt.Errorf("shoutout activity %s: %w", activity.ID, err)
		}
	}
	if state.Month == "" {
		state.Month = b.deps.Clock.Local(activity.Created).Format(monthFormat)
	}
	b.activity, b.month = activity, state.Month
	return nil
}

// Step pays new shoutouts, then rolls over to a new activity when the month
// has changed.
func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	if err := b.payShoutouts(ctx); err != nil {
		return time.Time{}, err
	}

	now := b.deps.Clock.Now()
	if now.Format(monthFormat) != b.month {
		if _, err := b.deps.Activities.Close(ctx, b.activity.ID, platform.ActivityInput{}); err != nil {
			return time.Time{}, err
		}
		in, err := b.newMonth(ctx)
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
	}

	next := b.deps.Clock.MonthStart(now, 1)
	if poll := now.Add(pollInterval); poll.Before(next) {
		return poll, nil
	}
	return next, nil
}

// payShoutouts rewards the first human mentioned in each direct reply, once
// per sender for the activity.
func (b *Bot) payShoutouts(ctx context.Context) error {
	tags, err := b.deps.Rewards.Tags(ctx, platform.RewardFilter{RelatedActivity: b.activity.ID})
	if err != nil {
		return err
	}
	replies, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent:  b.activity.ID,
		OrderBy: platform.OrderCreated,
	})
	if err != nil {
		return fmt.Errorf("list shoutouts: %w", err)
	}

	// a sender's first reply with a recipient is the one paid and answered
	handled := make(map[string]bool)
	for _, reply := range replies {
		sender := reply.User
		if sender.ID == b.deps.API.BotID() || !sender.IsHuman() || handled[sender.ID] {
			continue
		}
		mentions, err := b.deps.API.ListPeople(ctx, platform.PersonFilter{MentionIn: reply.ID})
		if err != nil {
			return fmt.Errorf("list mentions of %s: %w", reply.ID, err)
		}
		target, ok := firstRecipient(mentions, sender.ID)
		if !ok {
			continue
		}

		handled[sender.ID] = true

		reward, _, err := b.deps.Rewards.CreateOnceFrom(ctx, tags, sender.ID, platform.RewardInput{
			Target:          target.ID,
			Amount:          b.params.RewardAmount,
			Description:     fmt.Sprintf(rewardDescription, target.FirstName, sender.FirstName, Quote(reply.Description, mentions)),
			RelatedActivity: b.activity.ID,
		})
		if err != nil {
			return err
		}
		if reward.Target.FirstName != "" {
			target = reward.Target
		}
		if err := b.reply(ctx, reply.ID, reward, target); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) reply(ctx context.Context, parent string, reward *domain.Reward, target domain.Person) error {
	existing, err := b.deps.API.ListComments(ctx, platform.CommentFilter{Parent: parent, User: b.deps.API.BotID(), First: 1})
	if err != nil {
		return fmt.Errorf("list replies to %s: %w", parent, err)
	}
	if len(existing) > 0 {
		return nil
	}
	if _, err := b.deps.API.CreateComment(ctx, platform.CommentInput{
		Parent:      parent,
		Description: fmt.Sprintf(replyDescription, b.deps.API.AppLink(reward.ID), target.FirstName),
	}); err != nil {
		return fmt.Errorf("reply to shoutout %s: %w", parent, err)
	}
	return nil
}

func firstRecipient(mentions []domain.Person, sender string) (domain.Person, bool) {
	for _, p := range mentions {
		if p.ID != sender && p.IsHuman() {
			return p, true
		}
	}
	return domain.Person{}, false
}

// Quote swaps @mentions for first names and renders text as a markdown
// block quote.
func Quote(text string, mentions []domain.Person) string {
	for _, p := range mentions {
		if p.Username != "" {
			text = strings.ReplaceAll(text, "@"+p.Username, p.FirstName)
		}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) newMonth(ctx context.Context) (platform.ActivityInput, error) {
	node, err := b.deps.Activities.Node(ctx)
	if err != nil {
		return platform.ActivityInput{}, err
	}
	now := b.deps.Clock.Now()
	raw, err := scratch.Encode(State{
		Versioned: scratch.Versioned{Version: scratchVersion},
		Month:     now.Format(monthFormat),
	})
	if err != nil {
		return platform.ActivityInput{}, err
	}
	return platform.ActivityInput{
		Title: platform.String(fmt.Sprintf(activityTitle, now.Format("January"))),
		Description: platform.String(fmt.Sprintf(activityDescription,
			node.Username,
			node.Name,
			domain.FormatAmount(b.params.RewardAmount),
		)),
		RewardMin: platform.Int64(b.params.RewardAmount),
		Scratch:   &raw,
	}, nil
}
