package service

import (
	"context"

	"github.com/set-night/ibisbots/internal/domain"
)

// Notifier receives operational events worth telling a human about.
// Implementations must not block the bot for long and must not fail it.
type Notifier interface {
	RewardCreated(ctx context.Context, bot string, reward domain.Reward)
	ActivityClosed(ctx context.Context, bot string, activity domain.Activity)
	StepFailed(ctx context.Context, bot string, err error)
}

type NopNotifier struct{}

func (NopNotifier) RewardCreated(context.Context, string, domain.Reward)     {}
func (NopNotifier) ActivityClosed(context.Context, string, domain.Activity) {}
func (NopNotifier) StepFailed(context.Context, string, error)               {}
