package holiday

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/set-night/ibisbots/internal/bots/bottest"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/scratch"
)

var start = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

const smallCatalogue = `
- id: alpha
  date: "--10-16"
  name: Alpha Day
  description: Alpha is first.
  link: https://example.org/alpha
- id: beta
  date: "--10-20"
  name: Beta Day
  description: Beta is second.
  link: https://example.org/beta
- id: gamma
  date: "--11-01"
  name: Gamma Day
  description: Gamma is third.
  link: https://example.org/gamma
`

func newBot(t *testing.T) (*Bot, *bottest.Env) {
	t.Helper()
	env := bottest.New(config.BotHoliday, start)
	b, err := NewWithCatalogue(env.Deps, config.HolidayParams{RewardAmount: 500, Quantity: 1}, []byte(smallCatalogue))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return b, env
}

func upcomingIDs(t *testing.T, env *bottest.Env) []string {
	t.Helper()
	var state State
	if err := scratch.Decode(env.Fake.Activities()[0].Scratch, &state, scratchVersion); err != nil {
		t.Fatalf("decode scratch: %v", err)
	}
	var ids []string
	for _, h := range state.Upcoming {
		ids = append(ids, h.ID+"@"+h.Start[:10])
	}
	return ids
}

func TestInitSchedulesUpcoming(t *testing.T) {
	_, env := newBot(t)
	got := strings.Join(upcomingIDs(t, env), ",")
	want := "beta@2026-10-20,gamma@2026-11-01,alpha@2027-10-16"
	if got != want {
		t.Fatalf("upcoming=%s, want %s", got, want)
	}
	activity := env.Fake.Activities()[0]
	if activity.Title != activityTitle || activity.RewardMin != 500 {
		t.Fatalf("activity=%+v", activity)
	}
	if !strings.Contains(activity.Description, "|Tuesday, October 20&nbsp;&nbsp;|[Beta Day](https://example.org/beta)|") {
		t.Fatalf("description:\n%s", activity.Description)
	}
}

func TestStepRewardsHolidayDonor(t *testing.T) {
	ctx := context.Background()
	b, env := newBot(t)
	env.Fake.AddPerson(domain.Person{ID: "alice", FirstName: "Alice"})
	env.Fake.AddPerson(domain.Person{ID: "org", FirstName: "Food Bank"})

	next, err := b.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if want := time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next=%v, want %v", next, want)
	}

	d := env.Fake.AddDonation(domain.Donation{
		User:    domain.Person{ID: "alice"},
		Target:  domain.Person{ID: "org", FirstName: "Food Bank"},
		Amount:  1000,
		Created: time.Date(2026, time.October, 20, 15, 0, 0, 0, time.UTC),
	})
	// outside the holiday
	env.Fake.AddDonation(domain.Donation{User: domain.Person{ID: "alice"}, Amount: 1, Created: time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC)})

	env.Time.Set(time.Date(2026, time.October, 21, 1, 0, 0, 0, time.UTC))
	next, err = b.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if want := time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next=%v, want %v", next, want)
	}

	rewards := env.Fake.Rewards()
	if len(rewards) != 1 {
		t.Fatalf("rewards=%d", len(rewards))
	}
	r := rewards[0]
	if r.Target.ID != "alice" || r.Amount != 500 {
		t.Fatalf("reward=%+v", r)
	}
	if !strings.Contains(r.Scratch, `"tag":"holiday:beta:2026-10-20"`) || !strings.Contains(r.Scratch, `"donation":"`+d.ID+`"`) {
		t.Fatalf("scratch=%s", r.Scratch)
	}

	var comments []domain.Comment
	for _, c := range env.Fake.Comments() {
		if c.Parent == d.ID {
			comments = append(comments, c)
		}
	}
	if len(comments) != 1 || !strings.HasPrefix(comments[0].Description, "Happy Beta Day! In honor of this holiday, Alice") {
		t.Fatalf("comments=%+v", comments)
	}

	description := env.Fake.Activities()[0].Description
	if !strings.Contains(description, "|2026.10.20&nbsp;&nbsp;|[Beta Day](https://example.org/beta)&nbsp;&nbsp;|[link](https://app.test/#/_/Object?id="+d.ID+")|") {
		t.Fatalf("previous holidays:\n%s", description)
	}

	// gamma passes without donations
	env.Time.Set(time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC))
	next, err = b.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if want := time.Date(2027, time.October, 17, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next=%v, want %v", next, want)
	}
	if n := len(env.Fake.Rewards()); n != 1 {
		t.Fatalf("rewards=%d, want 1", n)
	}
	if !strings.Contains(env.Fake.Activities()[0].Description, "[Gamma Day](https://example.org/gamma)&nbsp;&nbsp;|none|") {
		t.Fatalf("gamma not listed as previous:\n%s", env.Fake.Activities()[0].Description)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b, env := newBot(t)
	env.Fake.AddPerson(domain.Person{ID: "alice", FirstName: "Alice"})
	env.Fake.AddDonation(domain.Donation{User: domain.Person{ID: "alice"}, Amount: 100, Created: time.Date(2026, time.October, 20, 8, 0, 0, 0, time.UTC)})
	env.Time.Set(time.Date(2026, time.October, 21, 1, 0, 0, 0, time.UTC))

	h := Scheduled{ID: "beta", Name: "Beta Day", Start: "2026-10-20T00:00:00Z"}
	dayStart := time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)
	first, _, err := b.settle(ctx, h, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	second, note, err := b.settle(ctx, h, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("settle again: %v", err)
	}
	if first.ID != second.ID || note.UserName != "Alice" {
		t.Fatalf("first=%s second=%s note=%+v", first.ID, second.ID, note)
	}
	if n := len(env.Fake.Rewards()); n != 1 {
		t.Fatalf("rewards=%d", n)
	}
}

func TestParseCatalogue(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	list, err := ParseCatalogue(defaultCatalogue, logger)
	if err != nil {
		t.Fatalf("default catalogue: %v", err)
	}
	if len(list) < 50 || logs.Len() != 0 {
		t.Fatalf("default catalogue: %d entries, logs=%q", len(list), logs.String())
	}

	unsorted := `
- {id: b, date: "--05-01", name: B}
- {id: a, date: "--05-01", name: A}
- {id: c, date: "--01-01", name: C}
`
	list, err = ParseCatalogue([]byte(unsorted), logger)
	if err != nil {
		t.Fatalf("unsorted: %v", err)
	}
	if list[0].ID != "c" || list[1].ID != "a" || list[2].ID != "b" {
		t.Fatalf("order=%v", list)
	}
	if !strings.Contains(logs.String(), "holiday file is not sorted") {
		t.Fatalf("missing warning: %q", logs.String())
	}

	for name, doc := range map[string]string{
		"bad date":  `[{id: x, date: "10-16"}]`,
		"leap day":  `[{id: x, date: "--02-29"}]`,
		"repeat id": `[{id: x, date: "--01-01"}, {id: x, date: "--01-02"}]`,
	} {
		if _, err := ParseCatalogue([]byte(doc), logger); !errors.Is(err, domain.ErrInvalidParams) {
			t.Errorf("%s: err=%v", name, err)
		}
	}
	if _, err := ParseCatalogue([]byte("[]"), logger); !errors.Is(err, domain.ErrEmptyCatalogue) {
		t.Errorf("empty: err=%v", err)
	}
}
