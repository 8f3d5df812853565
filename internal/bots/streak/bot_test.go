package streak

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/set-night/ibisbots/internal/bots/bottest"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/scratch"
)

// Friday; the last complete Monday week is Oct 5..12.
var start = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 12, 0, 0, 0, time.UTC)
}

func newBot(t *testing.T) (*Bot, *bottest.Env) {
	t.Helper()
	env := bottest.New(config.BotStreak, start)
	b, err := New(env.Deps, config.DefaultBotParams().Streak)
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return b, env
}

func donate(env *bottest.Env, user string, amount int64, at time.Time) {
	env.Fake.AddDonation(domain.Donation{User: domain.Person{ID: user}, Amount: amount, Created: at})
}

func TestCheckStreak(t *testing.T) {
	b, env := newBot(t)
	env.Fake.AddPerson(domain.Person{ID: "alice", Username: "alice", FirstName: "Alice"})

	donate(env, "alice", 500, day(time.October, 6))
	donate(env, "alice", 100, day(time.October, 11))
	donate(env, "alice", 200, day(time.September, 29))
	donate(env, "alice", 300, day(time.September, 22))
	// gap in the week of Sep 14, then older donations
	donate(env, "alice", 900, day(time.September, 8))
	// current week is not complete yet
	donate(env, "alice", 700, day(time.October, 13))

	streak, amount, err := b.CheckStreak(context.Background(), "alice", start)
	if err != nil {
		t.Fatalf("check streak: %v", err)
	}
	if streak != 3 || amount != 1100 {
		t.Fatalf("streak=%d amount=%d, want 3 and 1100", streak, amount)
	}
}

func TestStepRewardsOncePerEpoch(t *testing.T) {
	ctx := context.Background()
	b, env := newBot(t)
	env.Fake.AddPerson(domain.Person{ID: "alice", Username: "alice", FirstName: "Alice"})
	env.Fake.AddPerson(domain.Person{ID: "bob", Username: "bob", FirstName: "Bob"})

	for _, d := range []int{6, 29, 22} {
		month := time.October
		if d > 12 {
			month = time.September
		}
		donate(env, "alice", 100, day(month, d))
	}
	// two weeks only
	donate(env, "bob", 5000, day(time.October, 7))
	donate(env, "bob", 5000, day(time.September, 30))

	next, err := b.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if want := time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next=%v, want %v", next, want)
	}

	rewards := env.Fake.Rewards()
	if len(rewards) != 1 {
		t.Fatalf("rewards=%d, want 1", len(rewards))
	}
	r := rewards[0]
	if r.Target.ID != "alice" || r.Amount != 300 || r.Scratch != "streak:2026-10-14" {
		t.Fatalf("reward=%+v", r)
	}
	if !strings.Contains(r.Description, "Hi Alice, thanks for going 3 straight weeks") {
		t.Fatalf("description=%q", r.Description)
	}

	activity := env.Fake.Activities()[0]
	if activity.RewardMin != 300 || activity.RewardRange != 0 {
		t.Fatalf("reward bounds=%d/%d", activity.RewardMin, activity.RewardRange)
	}
	if !strings.Contains(activity.Description, "| 3 | $3.00 | @alice |") {
		t.Fatalf("leaderboard missing alice:\n%s", activity.Description)
	}
	if strings.Contains(activity.Description, "@bob") {
		t.Fatalf("bob has a two week streak:\n%s", activity.Description)
	}
	var state State
	if err := scratch.Decode(activity.Scratch, &state, scratchVersion); err != nil {
		t.Fatalf("decode scratch: %v", err)
	}
	if state.Winner != "alice" || len(state.Leaderboard) != 1 {
		t.Fatalf("state=%+v", state)
	}

	env.Time.Add(2 * time.Hour)
	if _, err := b.Step(ctx); err != nil {
		t.Fatalf("second step: %v", err)
	}
	if n := len(env.Fake.Rewards()); n != 1 {
		t.Fatalf("rewards after second step=%d, want 1", n)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	b, env := newBot(t)
	for _, id := range []string{"a", "b", "c"} {
		env.Fake.AddPerson(domain.Person{ID: id, Username: id})
	}
	weeks := []time.Time{day(time.October, 6), day(time.September, 29), day(time.September, 22), day(time.September, 15)}
	for _, w := range weeks[:3] {
		donate(env, "a", 100, w)
		donate(env, "b", 200, w)
	}
	for _, w := range weeks {
		donate(env, "c", 50, w)
	}

	board, err := b.Leaderboard(context.Background(), start)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	var got []string
	for _, e := range board {
		got = append(got, e.User.ID)
	}
	if strings.Join(got, ",") != "c,b,a" {
		t.Fatalf("order=%v, want c,b,a", got)
	}
	if r := b.rewardRange(board); r != 100 {
		t.Fatalf("reward range=%d, want 100", r)
	}
}

func TestNoDonorsStillDescribes(t *testing.T) {
	b, env := newBot(t)
	if _, err := b.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if n := len(env.Fake.Rewards()); n != 0 {
		t.Fatalf("rewards=%d", n)
	}
	if !strings.Contains(env.Fake.Activities()[0].Description, "## Active Streaks") {
		t.Fatal("description not rendered")
	}
}

func TestUntaggedRewardSettlesEpoch(t *testing.T) {
	b, env := newBot(t)
	env.Fake.AddPerson(domain.Person{ID: "alice", Username: "alice", FirstName: "Alice"})
	for _, d := range []time.Time{day(time.October, 6), day(time.September, 29), day(time.September, 22)} {
		donate(env, "alice", 100, d)
	}
	env.Fake.AddReward(domain.Reward{
		Target:  domain.Person{ID: "alice"},
		Amount:  300,
		Created: time.Date(2026, time.October, 14, 1, 0, 0, 0, time.UTC),
	})

	if _, err := b.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if n := len(env.Fake.Rewards()); n != 1 {
		t.Fatalf("rewards=%d, want the earlier reward only", n)
	}
}
