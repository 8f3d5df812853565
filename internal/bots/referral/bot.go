// Package referral pays people for bringing friends to the platform, and
// their referrers up the chain.
package referral

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
)

const scratchVersion = 1

type State struct {
	scratch.Versioned
	Members int `json:"members"`
	Pairs   int `json:"pairs"`
}

type Bot struct {
	deps     service.Deps
	params   config.ReferralParams
	activity *domain.Activity
}

func New(deps service.Deps, params config.ReferralParams) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Bot{deps: deps, params: params}, nil
}

func (b *Bot) Name() string { return config.BotReferral }

func (b *Bot) Init(ctx context.Context) error {
	activity, _, err := b.deps.Activities.FindOrCreate(ctx, func(context.Context) (platform.ActivityInput, error) {
		return platform.ActivityInput{
			Title:       platform.String(activityTitle),
			Description: platform.String(""),
			Scratch:     platform.String("{}"),
		}, nil
	})
	if err != nil {
		return err
	}
	b.activity = activity
	return nil
}

// Step redraws the referral tree and pays every referral pair not yet paid.
func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	people, err := b.deps.API.ListPeople(ctx, platform.PersonFilter{
		Verified: platform.Bool(true),
		OrderBy:  platform.OrderDateJoined,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("list verified people: %w", err)
	}
	lookup := make(map[string]domain.Person, len(people))
	for _, p := range people {
		lookup[p.ID] = p
	}

	pyramid := BuildPyramid(people)
	pairs := AncestorPairs(pyramid)

	amounts := append([]int64{b.params.ReferredAmount}, b.params.ReferrerAmounts...)
	lo, hi := slices.Min(amounts), slices.Max(amounts)
	activity, err := b.deps.Activities.Save(ctx, b.activity.ID,
		State{Versioned: scratch.Versioned{Version: scratchVersion}, Members: len(people), Pairs: len(pairs)},
		platform.ActivityInput{
			Title:       platform.String(activityTitle),
			Description: platform.String(b.describe(pyramid, lookup)),
			RewardMin:   platform.Int64(lo),
			RewardRange: platform.Int64(hi - lo),
		})
	if err != nil {
		return time.Time{}, err
	}
	b.activity = activity

	tags, err := b.deps.Rewards.Tags(ctx, platform.RewardFilter{OrderBy: platform.OrderCreated})
	if err != nil {
		return time.Time{}, err
	}
	for _, pair := range pairs {
		if err := b.pay(ctx, tags, pair, lookup); err != nil {
			return time.Time{}, err
		}
	}
	return b.deps.Clock.NextMidnight(b.deps.Clock.Now()), nil
}

// pay rewards the ancestor at levels covered by the referrer amounts, and the
// referred person once for their direct referrer. Only people whose
// verification is original count.
func (b *Bot) pay(ctx context.Context, tags map[string]domain.Reward, pair Pair, lookup map[string]domain.Person) error {
	node, ancestor := lookup[pair.Node], lookup[pair.Ancestor]
	if !node.VerifiedOriginal {
		return nil
	}

	if pair.Depth <= len(b.params.ReferrerAmounts) {
		description := fmt.Sprintf(rewardDirect, ancestor.FirstName, node.Username)
		if pair.Depth > 1 {
			description = fmt.Sprintf(rewardIndirect, ancestor.FirstName, node.Name, b.deps.API.AppLink(node.ID))
		}
		tag := fmt.Sprintf("referrer:%s:%s", ancestor.ID, node.ID)
		if _, _, err := b.deps.Rewards.CreateOnceFrom(ctx, tags, tag, platform.RewardInput{
			Target:          ancestor.ID,
			Amount:          b.params.ReferrerAmounts[pair.Depth-1],
			Description:     description,
			RelatedActivity: b.activity.ID,
		}); err != nil {
			return err
		}
	}

	if pair.Depth == 1 {
		tag := fmt.Sprintf("referred:%s:%s", ancestor.ID, node.ID)
		if _, _, err := b.deps.Rewards.CreateOnceFrom(ctx, tags, tag, platform.RewardInput{
			Target:          node.ID,
			Amount:          b.params.ReferredAmount,
			Description:     fmt.Sprintf(rewardReferred, node.FirstName, ancestor.Username),
			RelatedActivity: b.activity.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) describe(pyramid []Node, lookup map[string]domain.Person) string {
	levels := make([]string, len(b.params.ReferrerAmounts))
	for i, a := range b.params.ReferrerAmounts {
		levels[i] = fmt.Sprintf(levelLine, i+1, domain.FormatAmount(a))
	}
	return fmt.Sprintf(activityDescription,
		b.deps.API.InviteLink(),
		domain.FormatAmount(b.params.ReferredAmount),
		strings.Join(levels, "\n"),
		Render(pyramid, lookup),
	)
}
