package shoutout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/set-night/ibisbots/internal/bots/bottest"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
)

var start = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func newBot(t *testing.T) (*Bot, *bottest.Env) {
	t.Helper()
	env := bottest.New(config.BotShoutout, start)
	b, err := New(env.Deps, config.DefaultBotParams().Shoutout)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return b, env
}

func TestInitOpensMonthlyActivity(t *testing.T) {
	b, env := newBot(t)
	activities := env.Fake.Activities()
	if len(activities) != 1 {
		t.Fatalf("activities=%d", len(activities))
	}
	a := activities[0]
	if a.Title != "October Shoutouts" || !a.Active || a.RewardMin != 100 {
		t.Fatalf("activity=%+v", a)
	}
	if !strings.Contains(a.Description, "Hey @bot-1, great job") || !strings.Contains(a.Description, "Ibis Bot will send the recipient $1.00") {
		t.Fatalf("description:\n%s", a.Description)
	}
	if b.month != "2026-10" {
		t.Fatalf("month=%q", b.month)
	}
}

func TestStepPaysOneShoutoutPerSender(t *testing.T) {
	ctx := context.Background()
	b, env := newBot(t)
	round := b.activity.ID

	env.Fake.AddPerson(domain.Person{ID: "alice", Username: "alice", FirstName: "Alice"})
	env.Fake.AddPerson(domain.Person{ID: "bob", Username: "bobby", FirstName: "Bob"})
	env.Fake.AddPerson(domain.Person{ID: "carol", Username: "carol", FirstName: "Carol"})
	env.Fake.AddPerson(domain.Person{ID: "org", Username: "org", FirstName: "Org", UserType: domain.UserTypeOrganization})

	first := env.Fake.AddComment(domain.Comment{Parent: round, User: domain.Person{ID: "alice"}, Description: "Thanks @org and @bobby\nfor the help", Created: start})
	env.Fake.Mention(first.ID, "bob", "org")
	second := env.Fake.AddComment(domain.Comment{Parent: round, User: domain.Person{ID: "alice"}, Description: "and @carol too", Created: start.Add(time.Minute)})
	env.Fake.Mention(second.ID, "carol")
	self := env.Fake.AddComment(domain.Comment{Parent: round, User: domain.Person{ID: "carol"}, Description: "go me @carol", Created: start.Add(2 * time.Minute)})
	env.Fake.Mention(self.ID, "carol")

	env.Time.Set(start.Add(time.Hour))
	next, err := b.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !next.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("next=%v", next)
	}

	rewards := env.Fake.Rewards()
	if len(rewards) != 1 {
		t.Fatalf("rewards=%+v", rewards)
	}
	r := rewards[0]
	if r.Target.ID != "bob" || r.Amount != 100 || r.Scratch != "alice" || r.RelatedActivity != round {
		t.Fatalf("reward=%+v", r)
	}
	want := "Hey Bob, Here's a fresh shoutout from Alice:\n\n> Thanks Org and Bob\n> for the help"
	if r.Description != want {
		t.Fatalf("description=%q", r.Description)
	}

	var replies int
	for _, c := range env.Fake.Comments() {
		if c.Parent == first.ID && c.User.ID == bottest.BotID {
			replies++
			if !strings.Contains(c.Description, "[something](https://app.test/#/_/Object?id="+r.ID+") for Bob.") {
				t.Fatalf("reply=%q", c.Description)
			}
		}
	}
	if replies != 1 {
		t.Fatalf("replies=%d", replies)
	}

	// a second pass changes nothing
	if _, err := b.Step(ctx); err != nil {
		t.Fatalf("second step: %v", err)
	}
	if len(env.Fake.Rewards()) != 1 {
		t.Fatalf("rewards after rerun=%d", len(env.Fake.Rewards()))
	}
}

func TestStepRollsOverAtMonthBoundary(t *testing.T) {
	ctx := context.Background()
	b, env := newBot(t)
	old := b.activity.ID

	env.Time.Set(time.Date(2026, time.November, 1, 0, 5, 0, 0, time.UTC))
	next, err := b.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !next.Equal(time.Date(2026, time.November, 1, 1, 5, 0, 0, time.UTC)) {
		t.Fatalf("next=%v", next)
	}
	activities := env.Fake.Activities()
	if len(activities) != 2 || activities[0].ID != old || activities[0].Active {
		t.Fatalf("activities=%+v", activities)
	}
	if activities[1].Title != "November Shoutouts" || !activities[1].Active || b.month != "2026-11" {
		t.Fatalf("new activity=%+v month=%s", activities[1], b.month)
	}
}

func TestStepWakesAtMonthStartWhenSooner(t *testing.T) {
	b, env := newBot(t)
	env.Time.Set(time.Date(2026, time.October, 31, 23, 30, 0, 0, time.UTC))
	next, err := b.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !next.Equal(time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("next=%v", next)
	}
}

func TestQuote(t *testing.T) {
	mentions := []domain.Person{{Username: "ann", FirstName: "Ann"}}
	if got := Quote("hi @ann\nbye", mentions); got != "> hi Ann\n> bye" {
		t.Fatalf("Quote=%q", got)
	}
}

func TestStepAnswersRewardedShoutoutAfterRestart(t *testing.T) {
	b, env := newBot(t)
	round := b.activity.ID

	env.Fake.AddPerson(domain.Person{ID: "alice", Username: "alice", FirstName: "Alice"})
	env.Fake.AddPerson(domain.Person{ID: "bob", Username: "bobby", FirstName: "Bob"})
	shout := env.Fake.AddComment(domain.Comment{Parent: round, User: domain.Person{ID: "alice"}, Description: "nice one @bobby", Created: start})
	env.Fake.Mention(shout.ID, "bob")
	paid := env.Fake.AddReward(domain.Reward{
		Target:          domain.Person{ID: "bob"},
		Amount:          100,
		Scratch:         "alice",
		RelatedActivity: round,
		Created:         start.Add(time.Minute),
	})

	env.Time.Set(start.Add(time.Hour))
	if _, err := b.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if n := len(env.Fake.Rewards()); n != 1 {
		t.Fatalf("rewards=%d, want 1", n)
	}
	var replies []domain.Comment
	for _, c := range env.Fake.Comments() {
		if c.Parent == shout.ID && c.User.ID == bottest.BotID {
			replies = append(replies, c)
		}
	}
	if len(replies) != 1 {
		t.Fatalf("replies=%d, want 1", len(replies))
	}
	if !strings.Contains(replies[0].Description, "[something](https://app.test/#/_/Object?id="+paid.ID+") for Bob.") {
		t.Fatalf("reply=%q", replies[0].Description)
	}
}
