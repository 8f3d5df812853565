// Package holiday rewards a random donor on holidays picked from a fixed
// calendar.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
)

const (
	scratchVersion = 1
	upcomingCount  = 3
)

// Scheduled is a holiday placed on a concrete day. Start is the local
// midnight the holiday begins.
type Scheduled struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	Start        string `json:"start"`
	RewardLink   string `json:"reward_link,omitempty"`
	DonationLink string `json:"donation_link,omitempty"`
}

type State struct {
	scratch.Versioned
	Upcoming []Scheduled `json:"upcoming"`
	Previous []Scheduled `json:"previous"`
}

// rewardNote is the reward scratch.
type rewardNote struct {
	Holiday    string `json:"holiday"`
	Donation   string `json:"donation"`
	UserName   string `json:"user_name"`
	TargetName string `json:"target_name"`
}

type Bot struct {
	deps     service.Deps
	params   config.HolidayParams
	holidays []Holiday
	activity *domain.Activity
}

func New(deps service.Deps, params config.HolidayParams) (*Bot, error) {
	return NewWithCatalogue(deps, params, defaultCatalogue)
}

func NewWithCatalogue(deps service.Deps, params config.HolidayParams, catalogue []byte) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	holidays, err := ParseCatalogue(catalogue, deps.Logger)
	if err != nil {
		return nil, err
	}
	return &Bot{deps: deps, params: params, holidays: holidays}, nil
}

func (b *Bot) Name() string { return config.BotHoliday }

func (b *Bot) Init(ctx context.Context) error {
	activity, _, err := b.deps.Activities.FindOrCreate(ctx, func(context.Context) (platform.ActivityInput, error) {
		raw, err := scratch.Encode(State{Versioned: scratch.Versioned{Version: scratchVersion}})
		if err != nil {
			return platform.ActivityInput{}, err
		}
		return platform.ActivityInput{
			Title:       platform.String(""),
			Description: platform.String(""),
			Scratch:     &raw,
		}, nil
	})
	if err != nil {
		return err
	}
	b.activity = activity

	state, err := b.load()
	if err != nil {
		return err
	}
	return b.save(ctx, state, b.deps.Clock.Now())
}

// Step settles every scheduled holiday whose day has ended and sleeps until
// the end of the next one.
func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	now := b.deps.Clock.Now()
	for {
		state, err := b.load()
		if err != nil {
			return time.Time{}, err
		}
		if len(state.Upcoming) == 0 {
			if err := b.save(ctx, state, now); err != nil {
				return time.Time{}, err
			}
			continue
		}

		next := state.Upcoming[0]
		start, err := b.deps.Clock.Parse(next.Start)
		if err != nil {
			return time.Time{}, err
		}
		end := b.deps.Clock.DayStart(start, 1)
		if now.Before(end) {
			return end, nil
		}

		reward, note, err := b.settle(ctx, next, start, end)
		if err != nil {
			return time.Time{}, err
		}
		if reward != nil {
			if err := b.congratulate(ctx, next, reward, note); err != nil {
				return time.Time{}, err
			}
			state.Upcoming[0].RewardLink = b.deps.API.AppLink(reward.ID)
			state.Upcoming[0].DonationLink = b.deps.API.AppLink(note.Donation)
		}
		state.Previous = append(state.Previous, state.Upcoming[0])
		state.Upcoming = state.Upcoming[1:]
		if err := b.save(ctx, state, now); err != nil {
			return time.Time{}, err
		}
	}
}

// settle returns the holiday's reward, creating it for a random donor of
// that day if needed. A nil reward means nobody donated.
func (b *Bot) settle(ctx context.Context, h Scheduled, start, end time.Time) (*domain.Reward, rewardNote, error) {
	tags, err := b.deps.Rewards.Tags(ctx, platform.RewardFilter{
		RelatedActivity: b.activity.ID,
		CreatedAfter:    start,
	})
	if err != nil {
		return nil, rewardNote{}, err
	}
	for _, r := range tags {
		var note rewardNote
		if json.Unmarshal([]byte(r.Scratch), &note) == nil && note.Holiday == h.ID {
			return &r, note, nil
		}
	}

	donations, err := b.deps.API.ListDonations(ctx, platform.DonationFilter{CreatedAfter: start, CreatedBefore: end})
	if err != nil {
		return nil, rewardNote{}, fmt.Errorf("list holiday donations: %w", err)
	}
	donation, ok := b.pick(donations)
	if !ok {
		b.deps.Logger.Info("no donations on holiday", "holiday", h.ID)
		return nil, rewardNote{}, nil
	}

	note := rewardNote{
		Holiday:    h.ID,
		Donation:   donation.ID,
		UserName:   donation.User.FirstName,
		TargetName: donation.Target.FirstName,
	}
	tag := "holiday:" + h.ID + ":" + start.Format(time.DateOnly)
	raw, err := service.TaggedScratch(tag, map[string]any{
		"holiday":     note.Holiday,
		"donation":    note.Donation,
		"user_name":   note.UserName,
		"target_name": note.TargetName,
	})
	if err != nil {
		return nil, rewardNote{}, err
	}
	reward, _, err := b.deps.Rewards.CreateOnceFrom(ctx, tags, tag, platform.RewardInput{
		Target:          donation.User.ID,
		Amount:          b.params.RewardAmount,
		RelatedActivity: b.activity.ID,
		Description:     fmt.Sprintf(rewardDescription, b.deps.API.AppLink(donation.ID), h.Description, h.Link),
		Scratch:         raw,
	})
	if err != nil {
		return nil, rewardNote{}, err
	}
	return reward, note, nil
}

// pick draws a donor uniformly, then one of their donations uniformly.
func (b *Bot) pick(donations []domain.Donation) (domain.Donation, bool) {
	var order []string
	byUser := map[string][]domain.Donation{}
	for _, d := range donations {
		if _, ok := byUser[d.User.ID]; !ok {
			order = append(order, d.User.ID)
		}
		byUser[d.User.ID] = append(byUser[d.User.ID], d)
	}
	if len(order) == 0 {
		return domain.Donation{}, false
	}
	mine := byUser[order[b.deps.Rand.IntN(len(order))]]
	return mine[b.deps.Rand.IntN(len(mine))], true
}

func (b *Bot) congratulate(ctx context.Context, h Scheduled, reward *domain.Reward, note rewardNote) error {
	existing, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent: note.Donation,
		User:   b.deps.API.BotID(),
	})
	if err != nil {
		return fmt.Errorf("list donation comments: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = b.deps.API.CreateComment(ctx, platform.CommentInput{
		Parent:      note.Donation,
		Description: fmt.Sprintf(commentDescription, h.Name, note.UserName, b.deps.API.AppLink(reward.ID)),
	})
	if err != nil {
		return fmt.Errorf("comment on donation %s: %w", note.Donation, err)
	}
	return nil
}

func (b *Bot) load() (State, error) {
	var state State
	if scratch.IsEmpty(b.activity.Scratch) {
		return state, nil
	}
	if err := scratch.Decode(b.activity.Scratch, &state, scratchVersion); err != nil {
		return State{}, err
	}
	return state, nil
}

// save tops up the upcoming holidays and rewrites the activity.
func (b *Bot) save(ctx context.Context, state State, now time.Time) error {
	if err := b.schedule(&state, now); err != nil {
		return err
	}
	state.Version = scratchVersion
	activity, err := b.deps.Activities.Save(ctx, b.activity.ID, state, platform.ActivityInput{
		Title:       platform.String(activityTitle),
		Description: platform.String(b.describe(state)),
		RewardMin:   platform.Int64(b.params.RewardAmount),
	})
	if err != nil {
		return err
	}
	b.activity = activity
	return nil
}

// schedule appends holidays after the last upcoming one (or after today)
// until upcomingCount are queued. Each catalogue entry is accepted with
// probability 52*quantity/len(catalogue), so about quantity land in a week.
func (b *Bot) schedule(state *State, now time.Time) error {
	p := 52 * b.params.Quantity / float64(len(b.holidays))
	for len(state.Upcoming) < upcomingCount {
		index, base := b.position(state, now)
		for {
			index++
			if b.deps.Rand.Float64() < p {
				break
			}
		}
		h := b.holidays[index%len(b.holidays)]
		start, err := b.nextDate(h, base)
		if err != nil {
			return err
		}
		state.Upcoming = append(state.Upcoming, Scheduled{
			ID:          h.ID,
			Name:        h.Name,
			Description: h.Description,
			Link:        h.Link,
			Start:       start.Format(time.RFC3339),
		})
	}
	return nil
}

// position returns the catalogue index to continue after, and the earliest
// day the next holiday may fall on.
func (b *Bot) position(state *State, now time.Time) (int, time.Time) {
	if n := len(state.Upcoming); n > 0 {
		last := state.Upcoming[n-1]
		if base, err := b.deps.Clock.Parse(last.Start); err == nil {
			for i, h := range b.holidays {
				if h.ID == last.ID {
					return i, base
				}
			}
			now = base
		}
	}
	today := fmt.Sprintf("--%02d-%02d", now.Month(), now.Day())
	for i, h := range b.holidays {
		if h.Date > today {
			return i - 1, now
		}
	}
	return len(b.holidays) - 1, now
}

// nextDate is the first occurrence of h on or after base's day.
func (b *Bot) nextDate(h Holiday, base time.Time) (time.Time, error) {
	month, day, err := h.monthDay()
	if err != nil {
		return time.Time{}, err
	}
	base = b.deps.Clock.DayStart(base, 0)
	loc := b.deps.Clock.Location()
	candidate := time.Date(base.Year(), month, day, 0, 0, 0, 0, loc)
	if candidate.Before(base) {
		candidate = time.Date(base.Year()+1, month, day, 0, 0, 0, 0, loc)
	}
	return candidate, nil
}

func (b *Bot) describe(state State) string {
	upcoming := make([]string, 0, len(state.Upcoming))
	for _, h := range state.Upcoming {
		start, _ := b.deps.Clock.Parse(h.Start)
		upcoming = append(upcoming, fmt.Sprintf(upcomingRow, start.Format("Monday, January 02"), h.Name, h.Link))
	}
	previous := make([]string, 0, len(state.Previous))
	for i := len(state.Previous) - 1; i >= 0; i-- {
		h := state.Previous[i]
		start, _ := b.deps.Clock.Parse(h.Start)
		donation := "none"
		if h.DonationLink != "" {
			donation = "[link](" + h.DonationLink + ")"
		}
		previous = append(previous, fmt.Sprintf(previousRow, start.Format("2006.01.02"), h.Name, h.Link, donation))
	}
	return fmt.Sprintf(activityDescription,
		strconv.FormatFloat(b.params.Quantity, 'f', -1, 64),
		strings.Join(upcoming, "\n"),
		strings.Join(previous, "\n"),
	)
}
