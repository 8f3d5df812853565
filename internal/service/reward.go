package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/repository"
)

// RewardService creates rewards at most once per dedup tag. The tag lives in
// the reward's scratch field on the platform; the ledger closes the window
// between scanning for a tag and creating the reward.
type RewardService struct {
	api      platform.API
	ledger   repository.Ledger
	bot      string
	holder   string
	claimTTL time.Duration
	notifier Notifier
}

func NewRewardService(api platform.API, ledger repository.Ledger, bot, holder string, notifier Notifier) *RewardService {
	if ledger == nil {
		ledger = repository.NopLedger{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RewardService{
		api:      api,
		ledger:   ledger,
		bot:      bot,
		holder:   holder,
		claimTTL: config.ClaimTTL,
		notifier: notifier,
	}
}

// TagKey returns the dedup key stored in a reward scratch: the "tag" field of
// a JSON document, or the raw string otherwise.
func TagKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var doc struct {
			Tag string `json:"tag"`
		}
		if err := json.Unmarshal([]byte(raw), &doc); err == nil && doc.Tag != "" {
			return doc.Tag
		}
	}
	return raw
}

// TaggedScratch builds a JSON reward scratch that carries tag next to fields.
func TaggedScratch(tag string, fields map[string]any) (string, error) {
	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["tag"] = tag
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode reward scratch: %w", err)
	}
	return string(data), nil
}

// Tags indexes the bot's rewards within scope by dedup key.
func (s *RewardService) Tags(ctx context.Context, scope platform.RewardFilter) (map[string]domain.Reward, error) {
	scope.User = s.api.BotID()
	rewards, err := s.api.ListRewards(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	tags := make(map[string]domain.Reward, len(rewards))
	for _, r := range rewards {
		if key := TagKey(r.Scratch); key != "" {
			if _, ok := tags[key]; !ok {
				tags[key] = r
			}
		}
	}
	return tags, nil
}

// Find returns the reward carrying tag within scope.
func (s *RewardService) Find(ctx context.Context, tag string, scope platform.RewardFilter) (*domain.Reward, error) {
	tags, err := s.Tags(ctx, scope)
	if err != nil {
		return nil, err
	}
	if r, ok := tags[tag]; ok {
		return &r, nil
	}
	return nil, domain.ErrRewardNotFound
}

// CreateOnce creates the reward unless one tagged tag already exists within
// scope. It returns the existing or new reward and whether it was created.
func (s *RewardService) CreateOnce(ctx context.Context, tag string, scope platform.RewardFilter, in platform.RewardInput) (*domain.Reward, bool, error) {
	tags, err := s.Tags(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	return s.CreateOnceFrom(ctx, tags, tag, in)
}

// CreateOnceFrom is CreateOnce against a tag index the caller already
// loaded. A created reward is added to tags.
func (s *RewardService) CreateOnceFrom(ctx context.Context, tags map[string]domain.Reward, tag string, in platform.RewardInput) (*domain.Reward, bool, error) {
	if tag == "" {
		return nil, false, fmt.Errorf("create reward: empty tag: %w", domain.ErrInvalidParams)
	}
	if r, ok := tags[tag]; ok {
		return &r, false, nil
	}

	if in.Scratch == "" {
		in.Scratch = tag
	} else if key := TagKey(in.Scratch); key != tag {
		return nil, false, fmt.Errorf("reward scratch carries tag %q, want %q: %w", key, tag, domain.ErrInvalidParams)
	}

	claim, err := s.ledger.Claim(ctx, s.bot, tag, s.holder, s.claimTTL)
	if err != nil {
		return nil, false, fmt.Errorf("claim %s: %w", tag, err)
	}
	if claim.Confirmed() {
		slog.Warn("reward confirmed in ledger but not listed by platform",
			"bot", s.bot,
			"tag", tag,
			"reward_id", claim.RewardID,
		)
		r := domain.Reward{
			ID:              claim.RewardID,
			Target:          domain.Person{ID: in.Target},
			Amount:          in.Amount,
			Description:     in.Description,
			RelatedActivity: in.RelatedActivity,
			Scratch:         in.Scratch,
		}
		tags[tag] = r
		return &r, false, nil
	}

	reward, err := s.api.CreateReward(ctx, in)
	if err != nil {
		if relErr := s.ledger.Release(ctx, s.bot, tag, s.holder); relErr != nil {
			slog.Error("failed to release reward claim", "bot", s.bot, "tag", tag, "error", relErr)
		}
		return nil, false, fmt.Errorf("create reward %s: %w", tag, err)
	}
	tags[tag] = *reward

	if err := s.ledger.Confirm(ctx, s.bot, tag, s.holder, reward.ID); err != nil {
		return reward, true, fmt.Errorf("confirm reward %s: %w", tag, err)
	}

	slog.Info("reward created",
		"bot", s.bot,
		"tag", tag,
		"reward_id", reward.ID,
		"target", reward.Target.ID,
		"amount", domain.FormatAmount(reward.Amount),
	)
	s.notifier.RewardCreated(ctx, s.bot, *reward)
	return reward, true, nil
}
