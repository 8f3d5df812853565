package service

import (
	"log/slog"
	"math/rand/v2"

	"github.com/set-night/ibisbots/internal/clock"
	"github.com/set-night/ibisbots/internal/platform"
)

// Deps is what every bot is built from.
type Deps struct {
	API        platform.API
	Clock      *clock.Clock
	Activities *ActivityService
	Rewards    *RewardService
	Logger     *slog.Logger
	Rand       *rand.Rand
}
