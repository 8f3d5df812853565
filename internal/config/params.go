package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/set-night/ibisbots/internal/clock"
	"github.com/set-night/ibisbots/internal/domain"
	"gopkg.in/yaml.v3"
)

// BotParams holds the tunables of every bot. Amounts are in cents.
type BotParams struct {
	Streak     StreakParams     `yaml:"streak"`
	Holiday    HolidayParams    `yaml:"holiday"`
	Referral   ReferralParams   `yaml:"referral"`
	LastWord   LastWordParams   `yaml:"lastword"`
	Dilemma    DilemmaParams    `yaml:"dilemma"`
	Shoutout   ShoutoutParams   `yaml:"shoutout"`
	Vocabulary VocabularyParams `yaml:"vocabulary"`
	Story      StoryParams      `yaml:"story"`
}

type StreakParams struct {
	RewardMultiplier int64  `yaml:"reward_multiplier"`
	MinimumStreak    int    `yaml:"minimum_streak"`
	UBPWeekday       string `yaml:"ubp_weekday"`
	RewardWeekday    string `yaml:"reward_weekday"`
}

type HolidayParams struct {
	RewardAmount int64   `yaml:"reward_amount"`
	Quantity     float64 `yaml:"quantity"`
}

type ReferralParams struct {
	ReferrerAmounts []int64 `yaml:"referrer_amounts"`
	ReferredAmount  int64   `yaml:"referred_amount"`
}

type LastWordParams struct {
	CountdownDays   int   `yaml:"countdown_days"`
	RewardMin       int64 `yaml:"reward_min"`
	RewardIncrement int64 `yaml:"reward_increment"`
	RewardMax       int64 `yaml:"reward_max"`
}

type DilemmaParams struct {
	MinPlayers      int           `yaml:"min_players"`
	DurationHours   int           `yaml:"duration_hours"`
	AmountCooperate int64         `yaml:"amount_cooperate"`
	AmountDefect    int64         `yaml:"amount_defect"`
	AmountWin       int64         `yaml:"amount_win"`
	AmountLose      int64         `yaml:"amount_lose"`
	PollInterval    time.Duration `yaml:"poll_interval"`
}

type ShoutoutParams struct {
	RewardAmount int64 `yaml:"reward_amount"`
}

type VocabularyParams struct {
	RewardAmount int64  `yaml:"reward_amount"`
	Weekday      string `yaml:"weekday"`
	Recalculate  bool   `yaml:"recalculate"`
}

type StoryParams struct {
	RewardAmount  int64 `yaml:"reward_amount"`
	ContextLength int   `yaml:"context_length"`
	TextLength    int   `yaml:"text_length"`
	PageLength    int   `yaml:"page_length"`
}

func DefaultBotParams() BotParams {
	return BotParams{
		Streak: StreakParams{
			RewardMultiplier: 100,
			MinimumStreak:    3,
			UBPWeekday:       "Monday",
			RewardWeekday:    "Wednesday",
		},
		Holiday: HolidayParams{
			RewardAmount: 500,
			Quantity:     1,
		},
		Referral: ReferralParams{
			ReferrerAmounts: []int64{100, 50, 25},
			ReferredAmount:  100,
		},
		LastWord: LastWordParams{
			CountdownDays:   3,
			RewardMin:       100,
			RewardIncrement: 25,
			RewardMax:       1000,
		},
		Dilemma: DilemmaParams{
			MinPlayers:      2,
			DurationHours:   24,
			AmountCooperate: 300,
			AmountDefect:    100,
			AmountWin:       500,
			AmountLose:      50,
			PollInterval:    5 * time.Minute,
		},
		Shoutout: ShoutoutParams{
			RewardAmount: 100,
		},
		Vocabulary: VocabularyParams{
			RewardAmount: 100,
			Weekday:      "Monday",
		},
		Story: StoryParams{
			RewardAmount:  500,
			ContextLength: 400,
			TextLength:    120,
			PageLength:    7,
		},
	}
}

// LoadBotParams overlays the YAML file at path onto DefaultBotParams. A
// missing file leaves the defaults in place.
func LoadBotParams(path string) (BotParams, error) {
	params := DefaultBotParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return params, nil
		}
		return BotParams{}, fmt.Errorf("read bot params: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return BotParams{}, fmt.Errorf("unmarshal bot params: %w", err)
	}
	return params, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrInvalidParams)
}

func (p StreakParams) Validate() error {
	if p.RewardMultiplier <= 0 {
		return invalid("streak reward_multiplier must be positive")
	}
	if p.MinimumStreak < 1 {
		return invalid("streak minimum_streak must be at least 1")
	}
	if _, err := clock.ParseWeekday(p.UBPWeekday); err != nil {
		return invalid("streak ubp_weekday: %v", err)
	}
	if _, err := clock.ParseWeekday(p.RewardWeekday); err != nil {
		return invalid("streak reward_weekday: %v", err)
	}
	return nil
}

func (p HolidayParams) Validate() error {
	if p.RewardAmount <= 0 {
		return invalid("holiday reward_amount must be positive")
	}
	if p.Quantity <= 0 || p.Quantity > 7 {
		return invalid("holiday quantity must be in (0, 7]")
	}
	return nil
}

func (p ReferralParams) Validate() error {
	if len(p.ReferrerAmounts) == 0 {
		return invalid("referral referrer_amounts is empty")
	}
	for i, a := range p.ReferrerAmounts {
		if a <= 0 {
			return invalid("referral referrer_amounts[%d] must be positive", i)
		}
	}
	if p.ReferredAmount <= 0 {
		return invalid("referral referred_amount must be positive")
	}
	return nil
}

func (p LastWordParams) Validate() error {
	if p.CountdownDays < 1 {
		return invalid("lastword countdown_days must be at least 1")
	}
	if p.RewardMin <= 0 || p.RewardIncrement < 0 {
		return invalid("lastword reward_min must be positive and reward_increment non-negative")
	}
	if p.RewardMax < p.RewardMin {
		return invalid("lastword reward_max must not be below reward_min")
	}
	return nil
}

func (p DilemmaParams) Validate() error {
	if p.MinPlayers < 2 {
		return invalid("dilemma min_players must be at least 2")
	}
	if p.DurationHours < 0 {
		return invalid("dilemma duration_hours must not be negative")
	}
	for name, amount := range map[string]int64{
		"amount_cooperate": p.AmountCooperate,
		"amount_defect":    p.AmountDefect,
		"amount_win":       p.AmountWin,
		"amount_lose":      p.AmountLose,
	} {
		if amount < 0 {
			return invalid("dilemma %s must not be negative", name)
		}
	}
	if p.PollInterval <= 0 {
		return invalid("dilemma poll_interval must be positive")
	}
	return nil
}

func (p ShoutoutParams) Validate() error {
	if p.RewardAmount <= 0 {
		return invalid("shoutout reward_amount must be positive")
	}
	return nil
}

func (p VocabularyParams) Validate() error {
	if p.RewardAmount <= 0 {
		return invalid("vocabulary reward_amount must be positive")
	}
	if _, err := clock.ParseWeekday(p.Weekday); err != nil {
		return invalid("vocabulary weekday: %v", err)
	}
	return nil
}

func (p StoryParams) Validate() error {
	if p.RewardAmount <= 0 {
		return invalid("story reward_amount must be positive")
	}
	if p.ContextLength < 1 || p.TextLength < 1 {
		return invalid("story context_length and text_length must be positive")
	}
	if p.PageLength < 1 {
		return invalid("story page_length must be at least 1")
	}
	return nil
}
