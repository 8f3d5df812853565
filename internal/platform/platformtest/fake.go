// Package platformtest provides an in-memory platform for bot tests.
package platformtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
)

var _ platform.API = (*Fake)(nil)

// Fake keeps every object in memory and applies the same filters the GraphQL
// endpoint does. Objects created by the bot are stamped with Now.
type Fake struct {
	mu sync.Mutex

	Bot   domain.Person
	Now   func() time.Time
	quote domain.Quote

	seq        int
	people     []domain.Person
	activities []domain.Activity
	rewards    []domain.Reward
	comments   []domain.Comment
	donations  []domain.Donation
	likes      map[string][]string
	mentions   map[string][]string
}

func New(botID string, now func() time.Time) *Fake {
	if now == nil {
		now = time.Now
	}
	bot := domain.Person{ID: botID, Username: botID, FirstName: "Ibis", Name: "Ibis Bot", UserType: domain.UserTypeBot}
	return &Fake{
		Bot:      bot,
		Now:      now,
		quote:    domain.Quote{Quote: "Be kind.", Author: "Anonymous"},
		people:   []domain.Person{bot},
		likes:    map[string][]string{},
		mentions: map[string][]string{},
	}
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *Fake) person(id string) domain.Person {
	for _, p := range f.people {
		if p.ID == id {
			return p
		}
	}
	return domain.Person{ID: id}
}

// AddPerson registers an account. People are listed in insertion order when
// ordered by join date.
func (f *Fake) AddPerson(p domain.Person) domain.Person {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.UserType == "" {
		p.UserType = domain.UserTypePerson
	}
	f.people = append(f.people, p)
	return p
}

func (f *Fake) AddDonation(d domain.Donation) domain.Donation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == "" {
		d.ID = f.nextID("donation")
	}
	d.User = f.person(d.User.ID)
	f.donations = append(f.donations, d)
	return d
}

// AddComment stores a comment written by someone other than the bot.
func (f *Fake) AddComment(c domain.Comment) domain.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.nextID("comment")
	}
	if c.Created.IsZero() {
		c.Created = f.Now()
	}
	c.User = f.person(c.User.ID)
	f.comments = append(f.comments, c)
	return c
}

// AddActivity stores an activity as is, for state that predates the test.
func (f *Fake) AddActivity(a domain.Activity) domain.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = f.nextID("activity")
	}
	if a.User.ID == "" {
		a.User = f.Bot
	}
	if a.Created.IsZero() {
		a.Created = f.Now()
	}
	f.activities = append(f.activities, a)
	return a
}

func (f *Fake) AddReward(r domain.Reward) domain.Reward {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = f.nextID("reward")
	}
	if r.User.ID == "" {
		r.User = f.Bot
	}
	if r.Created.IsZero() {
		r.Created = f.Now()
	}
	r.Target = f.person(r.Target.ID)
	f.rewards = append(f.rewards, r)
	return r
}

func (f *Fake) Like(commentID string, personIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes[commentID] = append(f.likes[commentID], personIDs...)
}

func (f *Fake) Mention(commentID string, personIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions[commentID] = append(f.mentions[commentID], personIDs...)
}

func (f *Fake) SetQuote(q domain.Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote = q
}

// Activities returns a snapshot of every activity in creation order.
func (f *Fake) Activities() []domain.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Activity(nil), f.activities...)
}

func (f *Fake) Rewards() []domain.Reward {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Reward(nil), f.rewards...)
}

func (f *Fake) Comments() []domain.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Comment, len(f.comments))
	for i, c := range f.comments {
		c.LikeCount = len(f.likes[c.ID])
		out[i] = c
	}
	return out
}

func (f *Fake) BotID() string { return f.Bot.ID }

func (f *Fake) AppLink(id string) string { return "https://app.test/#/_/Object?id=" + id }

func (f *Fake) InviteLink() string { return "https://app.test/#/Person/PersonList" }

func (f *Fake) Node(context.Context) (*domain.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.activities {
		if a.User.ID == f.Bot.ID {
			count++
		}
	}
	return &domain.Node{ID: f.Bot.ID, Name: f.Bot.Name, Username: f.Bot.Username, ActivityCount: count}, nil
}

func (f *Fake) Quote(context.Context) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.quote
	return &q, nil
}

func (f *Fake) ListActivities(_ context.Context, filter platform.ActivityFilter) ([]domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Activity
	for _, a := range f.activities {
		if filter.User != "" && a.User.ID != filter.User {
			continue
		}
		if filter.Active != nil && a.Active != *filter.Active {
			continue
		}
		if !filter.CreatedBefore.IsZero() && !a.Created.Before(filter.CreatedBefore) {
			continue
		}
		out = append(out, a)
	}
	order(out, filter.OrderBy, func(a domain.Activity) time.Time { return a.Created })
	return first(out, filter.First), nil
}

func (f *Fake) CreateActivity(_ context.Context, in platform.ActivityInput) (*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a := domain.Activity{ID: f.nextID("activity"), User: f.Bot, Created: f.Now()}
	applyActivity(&a, in)
	f.activities = append(f.activities, a)
	return &a, nil
}

func (f *Fake) UpdateActivity(_ context.Context, in platform.ActivityInput) (*domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.activities {
		if f.activities[i].ID == in.ID {
			applyActivity(&f.activities[i], in)
			a := f.activities[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("update activity %s: %w", in.ID, domain.ErrActivityNotFound)
}

func applyActivity(a *domain.Activity, in platform.ActivityInput) {
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	if in.RewardMin != nil {
		a.RewardMin = *in.RewardMin
	}
	if in.RewardRange != nil {
		a.RewardRange = *in.RewardRange
	}
	if in.Scratch != nil {
		a.Scratch = *in.Scratch
	}
}

func (f *Fake) ListRewards(_ context.Context, filter platform.RewardFilter) ([]domain.Reward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Reward
	for _, r := range f.rewards {
		if filter.User != "" && r.User.ID != filter.User {
			continue
		}
		if filter.RelatedActivity != "" && r.RelatedActivity != filter.RelatedActivity {
			continue
		}
		if !filter.CreatedAfter.IsZero() && r.Created.Before(filter.CreatedAfter) {
			continue
		}
		out = append(out, r)
	}
	order(out, filter.OrderBy, func(r domain.Reward) time.Time { return r.Created })
	return out, nil
}

func (f *Fake) CreateReward(_ context.Context, in platform.RewardInput) (*domain.Reward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if in.Amount <= 0 {
		return nil, fmt.Errorf("create reward: amount must be positive, got %d", in.Amount)
	}
	r := domain.Reward{
		ID:              f.nextID("reward"),
		Target:          f.person(in.Target),
		User:            f.Bot,
		Amount:          in.Amount,
		Description:     in.Description,
		RelatedActivity: in.RelatedActivity,
		Scratch:         in.Scratch,
		Created:         f.Now(),
	}
	f.rewards = append(f.rewards, r)
	return &r, nil
}

func (f *Fake) ListComments(_ context.Context, filter platform.CommentFilter) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Comment
	for _, c := range f.comments {
		if filter.Parent != "" && c.Parent != filter.Parent {
			continue
		}
		if filter.User != "" && c.User.ID != filter.User {
			continue
		}
		c.LikeCount = len(f.likes[c.ID])
		out = append(out, c)
	}
	order(out, filter.OrderBy, func(c domain.Comment) time.Time { return c.Created })
	return first(out, filter.First), nil
}

func (f *Fake) CreateComment(_ context.Context, in platform.CommentInput) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := domain.Comment{
		ID:          f.nextID("comment"),
		Parent:      in.Parent,
		User:        f.Bot,
		Description: in.Description,
		Created:     f.Now(),
	}
	f.comments = append(f.comments, c)
	return &c, nil
}

func (f *Fake) CommentTree(ctx context.Context, root string) ([]domain.Comment, error) {
	return platform.BuildCommentTree(ctx, f, root)
}

func (f *Fake) ListDonations(_ context.Context, filter platform.DonationFilter) ([]domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Donation
	for _, d := range f.donations {
		if filter.User != "" && d.User.ID != filter.User {
			continue
		}
		if !filter.CreatedAfter.IsZero() && d.Created.Before(filter.CreatedAfter) {
			continue
		}
		if !filter.CreatedBefore.IsZero() && !d.Created.Before(filter.CreatedBefore) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *Fake) ListPeople(_ context.Context, filter platform.PersonFilter) ([]domain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var allowed map[string]bool
	restrict := func(ids []string) {
		set := map[string]bool{}
		for _, id := range ids {
			if allowed == nil || allowed[id] {
				set[id] = true
			}
		}
		allowed = set
	}
	if filter.LikeFor != "" {
		restrict(f.likes[filter.LikeFor])
	}
	if filter.MentionIn != "" {
		restrict(f.mentions[filter.MentionIn])
	}

	var out []domain.Person
	for _, p := range f.people {
		if allowed != nil && !allowed[p.ID] {
			continue
		}
		if filter.Verified != nil && p.Verified != *filter.Verified {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// order sorts in place by creation time; ties keep insertion order.
func order[T any](items []T, orderBy string, created func(T) time.Time) {
	desc := orderBy == platform.OrderCreatedDesc
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return created(items[i]).After(created(items[j]))
		}
		return created(items[i]).Before(created(items[j]))
	})
}

func first[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
