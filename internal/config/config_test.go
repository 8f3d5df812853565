package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/set-night/ibisbots/internal/domain"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"BOT_NAME":       " Streak ",
		"PLATFORM_URL":   "https://api.tokenibis.org",
		"PLATFORM_TOKEN": "secret",
		"BOT_ID":         "Qm90Tm9kZTox",
	}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.BotName != "streak" {
		t.Fatalf("bot name=%q", cfg.BotName)
	}
	if cfg.Timezone != "America/Denver" || cfg.BotParamsFile != "bots.yaml" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelInfo || cfg.TelegramEnabled() {
		t.Fatalf("unexpected logging defaults: %+v", cfg)
	}
}

func TestParseRequiresPlatform(t *testing.T) {
	if _, err := parse(env.Options{Environment: map[string]string{"BOT_NAME": "streak"}}); err == nil {
		t.Fatal("expected missing required variables to fail")
	}
}

func TestLoadBotParamsOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bots.yaml")
	yaml := `
streak:
  minimum_streak: 5
dilemma:
  poll_interval: 90s
referral:
  referrer_amounts: [200]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write params: %v", err)
	}

	params, err := LoadBotParams(path)
	if err != nil {
		t.Fatalf("load params: %v", err)
	}
	if params.Streak.MinimumStreak != 5 || params.Streak.RewardMultiplier != 100 {
		t.Fatalf("unexpected streak params: %+v", params.Streak)
	}
	if params.Dilemma.PollInterval != 90*time.Second || params.Dilemma.MinPlayers != 2 {
		t.Fatalf("unexpected dilemma params: %+v", params.Dilemma)
	}
	if len(params.Referral.ReferrerAmounts) != 1 || params.Referral.ReferrerAmounts[0] != 200 {
		t.Fatalf("unexpected referral params: %+v", params.Referral)
	}
}

func TestLoadBotParamsMissingFileUsesDefaults(t *testing.T) {
	params, err := LoadBotParams(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load params: %v", err)
	}
	if params.Story.PageLength != DefaultBotParams().Story.PageLength {
		t.Fatalf("expected defaults, got %+v", params.Story)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	p := DefaultBotParams()
	validators := map[string]func() error{
		BotStreak:     p.Streak.Validate,
		BotHoliday:    p.Holiday.Validate,
		BotReferral:   p.Referral.Validate,
		BotLastWord:   p.LastWord.Validate,
		BotDilemma:    p.Dilemma.Validate,
		BotShoutout:   p.Shoutout.Validate,
		BotVocabulary: p.Vocabulary.Validate,
		BotStory:      p.Story.Validate,
	}
	for name, validate := range validators {
		if err := validate(); err != nil {
			t.Errorf("%s defaults invalid: %v", name, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "dilemma single player", err: DilemmaParams{MinPlayers: 1, PollInterval: time.Minute}.Validate()},
		{name: "streak bad weekday", err: StreakParams{RewardMultiplier: 1, MinimumStreak: 1, UBPWeekday: "Caturday", RewardWeekday: "Monday"}.Validate()},
		{name: "referral empty", err: ReferralParams{ReferredAmount: 1}.Validate()},
		{name: "lastword max below min", err: LastWordParams{CountdownDays: 1, RewardMin: 10, RewardMax: 5}.Validate()},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, domain.ErrInvalidParams) {
			t.Errorf("%s: expected ErrInvalidParams, got %v", tt.name, tt.err)
		}
	}
}
