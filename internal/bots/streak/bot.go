// Package streak rewards donors who keep donating week after week.
package streak

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/clock"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
)

const scratchVersion = 1

// Entry is one leaderboard line.
type Entry struct {
	User   domain.Person `json:"user"`
	Streak int           `json:"streak"`
	Amount int64         `json:"amount"`
}

// State is the activity scratch: the last evaluated epoch and its board.
type State struct {
	scratch.Versioned
	Epoch       time.Time `json:"epoch,omitzero"`
	Leaderboard []Entry   `json:"leaderboard"`
	Winner      string    `json:"winner,omitempty"`
}

type Bot struct {
	deps          service.Deps
	params        config.StreakParams
	ubpWeekday    time.Weekday
	rewardWeekday time.Weekday
	activity      *domain.Activity
}

func New(deps service.Deps, params config.StreakParams) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	ubp, _ := clock.ParseWeekday(params.UBPWeekday)
	reward, _ := clock.ParseWeekday(params.RewardWeekday)
	return &Bot{
		deps:          deps,
		params:        params,
		ubpWeekday:    ubp,
		rewardWeekday: reward,
	}, nil
}

func (b *Bot) Name() string { return config.BotStreak }

func (b *Bot) Init(ctx context.Context) error {
	activity, created, err := b.deps.Activities.FindOrCreate(ctx, func(context.Context) (platform.ActivityInput, error) {
		return platform.ActivityInput{
			Title:       platform.String(activityTitle),
			Description: platform.String(""),
			RewardMin:   platform.Int64(0),
		}, nil
	})
	if err != nil {
		return err
	}
	if created {
		b.deps.Logger.Info("created streak activity", "activity_id", activity.ID)
	}
	b.activity = activity
	return nil
}

// Step evaluates the current reward epoch once. A reward made since the epoch
// began means the epoch is done.
func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	now := b.deps.Clock.Now()
	epoch := b.deps.Clock.EpochStart(b.rewardWeekday, now, 0)
	next := b.deps.Clock.EpochStart(b.rewardWeekday, now, 1)

	// untagged rewards from earlier releases count too
	paid, err := b.deps.API.ListRewards(ctx, platform.RewardFilter{User: b.deps.API.BotID(), CreatedAfter: epoch})
	if err != nil {
		return time.Time{}, fmt.Errorf("list epoch rewards: %w", err)
	}
	if len(paid) > 0 {
		return next, nil
	}

	board, err := b.Leaderboard(ctx, now)
	if err != nil {
		return time.Time{}, err
	}

	state := State{Versioned: scratch.Versioned{Version: scratchVersion}, Epoch: epoch, Leaderboard: board}
	var winner *Entry
	if len(board) > 0 {
		w := board[b.deps.Rand.IntN(len(board))]
		winner = &w
		state.Winner = w.User.ID
	}

	activity, err := b.deps.Activities.Save(ctx, b.activity.ID, state, platform.ActivityInput{
		Title:       platform.String(activityTitle),
		Description: platform.String(b.describe(board)),
		RewardMin:   platform.Int64(b.params.RewardMultiplier * int64(b.params.MinimumStreak)),
		RewardRange: platform.Int64(b.rewardRange(board)),
	})
	if err != nil {
		return time.Time{}, err
	}
	b.activity = activity

	if winner != nil {
		_, _, err := b.deps.Rewards.CreateOnceFrom(ctx, map[string]domain.Reward{}, "streak:"+epoch.Format(time.DateOnly), platform.RewardInput{
			Target:          winner.User.ID,
			Amount:          b.params.RewardMultiplier * int64(winner.Streak),
			RelatedActivity: activity.ID,
			Description:     fmt.Sprintf(rewardDescription, winner.User.FirstName, winner.Streak),
		})
		if err != nil {
			return time.Time{}, err
		}
	}
	return next, nil
}

// Leaderboard ranks last week's donors whose streak reaches the minimum,
// longest streak first and larger totals breaking ties.
func (b *Bot) Leaderboard(ctx context.Context, now time.Time) ([]Entry, error) {
	donations, err := b.deps.API.ListDonations(ctx, platform.DonationFilter{
		CreatedAfter:  b.deps.Clock.EpochStart(b.ubpWeekday, now, -1),
		CreatedBefore: b.deps.Clock.EpochStart(b.ubpWeekday, now, 0),
	})
	if err != nil {
		return nil, fmt.Errorf("list last week's donations: %w", err)
	}

	seen := map[string]bool{}
	var board []Entry
	for _, d := range donations {
		if seen[d.User.ID] {
			continue
		}
		seen[d.User.ID] = true

		streak, amount, err := b.CheckStreak(ctx, d.User.ID, now)
		if err != nil {
			return nil, err
		}
		if streak < b.params.MinimumStreak {
			continue
		}
		board = append(board, Entry{User: d.User, Streak: streak, Amount: amount})
	}

	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Streak != board[j].Streak {
			return board[i].Streak > board[j].Streak
		}
		return board[i].Amount > board[j].Amount
	})
	return board, nil
}

// CheckStreak walks back one UBP week at a time from the last complete week
// until a week without donations. It returns the number of consecutive weeks
// and the total donated in them.
func (b *Bot) CheckStreak(ctx context.Context, userID string, now time.Time) (int, int64, error) {
	var (
		streak int
		amount int64
	)
	for offset := 0; ; offset-- {
		donations, err := b.deps.API.ListDonations(ctx, platform.DonationFilter{
			User:          userID,
			CreatedAfter:  b.deps.Clock.EpochStart(b.ubpWeekday, now, offset-1),
			CreatedBefore: b.deps.Clock.EpochStart(b.ubpWeekday, now, offset),
		})
		if err != nil {
			return 0, 0, fmt.Errorf("list donations of %s: %w", userID, err)
		}
		if len(donations) == 0 {
			return streak, amount, nil
		}
		streak++
		for _, d := range donations {
			amount += d.Amount
		}
	}
}

func (b *Bot) rewardRange(board []Entry) int64 {
	if len(board) == 0 {
		return 0
	}
	return max(0, b.params.RewardMultiplier*int64(board[0].Streak-b.params.MinimumStreak))
}

func (b *Bot) describe(board []Entry) string {
	rows := make([]string, len(board))
	for i, e := range board {
		rows[i] = fmt.Sprintf(leaderboardRow, e.Streak, domain.FormatAmount(e.Amount), e.User.Username)
	}
	return fmt.Sprintf(activityDescription,
		b.params.MinimumStreak,
		domain.FormatAmount(b.params.RewardMultiplier),
		strings.Join(rows, "\n"),
	)
}
