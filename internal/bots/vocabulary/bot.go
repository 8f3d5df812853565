// Package vocabulary rewards donors who use a word nobody has used in a
// donation description before.
package vocabulary

import (
	"context"
	"encoding/json"
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

// WordCounter counts the vocabulary words of free text.
type WordCounter interface {
	WordCount(descriptions ...string) (map[string]int, error)
}

// Recipient is a past winner together with the word that won.
type Recipient struct {
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	RewardID      string `json:"reward_id,omitempty"`
	DonationID    string `json:"donation_id"`
	Word          string `json:"word"`
	RewardCreated string `json:"reward_created,omitempty"`
}

// State is the activity scratch. EpochStart stays a string so documents
// written with older timestamp layouts still load.
type State struct {
	scratch.Versioned
	EpochStart string         `json:"epoch_start"`
	WordCount  map[string]int `json:"word_count"`
	Recipients []Recipient    `json:"reward_recipients"`
}

type rewardScratch struct {
	DonationID string `json:"donation_id"`
	Word       string `json:"word"`
}

type Bot struct {
	deps     service.Deps
	params   config.VocabularyParams
	words    WordCounter
	weekday  time.Weekday
	activity *domain.Activity
	state    State
}

func New(deps service.Deps, params config.VocabularyParams, words WordCounter) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if words == nil {
		return nil, fmt.Errorf("vocabulary: nil word counter: %w", domain.ErrInvalidParams)
	}
	weekday, _ := clock.ParseWeekday(params.Weekday)
	return &Bot{deps: deps, params: params, words: words, weekday: weekday}, nil
}

func (b *Bot) Name() string { return config.BotVocabulary }

// Init loads the activity state, rebuilding it from the donation history on
// first run or when recalculation is requested.
func (b *Bot) Init(ctx context.Context) error {
	activity, _, err := b.deps.Activities.FindOrCreate(ctx, func(context.Context) (platform.ActivityInput, error) {
		return platform.ActivityInput{
			Title:       platform.String(activityTitle),
			Description: platform.String(""),
		}, nil
	})
	if err != nil {
		return err
	}
	b.activity = activity

	empty := scratch.IsEmpty(activity.Scratch)
	if !empty {
		if err := scratch.Decode(activity.Scratch, &b.state, scratchVersion); err != nil {
			return fmt.Errorf("vocabulary activity %s: %w", activity.ID, err)
		}
	}
	if !empty && !b.params.Recalculate && b.state.EpochStart != "" {
		if b.state.WordCount == nil {
			b.state.WordCount = map[string]int{}
		}
		return nil
	}

	epoch := b.deps.Clock.EpochStart(b.weekday, b.deps.Clock.Now(), 0)
	if !empty && b.state.EpochStart != "" {
		if epoch, err = b.deps.Clock.Parse(b.state.EpochStart); err != nil {
			return fmt.Errorf("vocabulary epoch start: %w", err)
		}
	}
	return b.rebuild(ctx, epoch)
}

func (b *Bot) rebuild(ctx context.Context, epoch time.Time) error {
	donations, err := b.deps.API.ListDonations(ctx, platform.DonationFilter{CreatedBefore: epoch})
	if err != nil {
		return fmt.Errorf("list donations before %s: %w", epoch.Format(time.DateOnly), err)
	}
	descriptions := make([]string, len(donations))
	for i, d := range donations {
		descriptions[i] = d.Description
	}
	count, err := b.words.WordCount(descriptions...)
	if err != nil {
		return err
	}

	rewards, err := b.deps.API.ListRewards(ctx, platform.RewardFilter{
		User:            b.deps.API.BotID(),
		RelatedActivity: b.activity.ID,
		OrderBy:         platform.OrderCreatedDesc,
	})
	if err != nil {
		return fmt.Errorf("list vocabulary rewards: %w", err)
	}
	recipients := make([]Recipient, 0, len(rewards))
	for _, r := range rewards {
		if rec, ok := recipientOf(r); ok {
			recipients = append(recipients, rec)
		}
	}

	b.deps.Logger.Info("rebuilt vocabulary",
		"activity_id", b.activity.ID,
		"words", len(count),
		"recipients", len(recipients),
	)
	return b.save(ctx, State{
		Versioned:  scratch.Versioned{Version: scratchVersion},
		EpochStart: epoch.Format(time.RFC3339),
		WordCount:  count,
		Recipients: recipients,
	})
}

func recipientOf(r domain.Reward) (Recipient, bool) {
	var rs rewardScratch
	if err := json.Unmarshal([]byte(r.Scratch), &rs); err != nil || rs.Word == "" {
		return Recipient{}, false
	}
	return Recipient{
		UserID:        r.Target.ID,
		UserName:      r.Target.Name,
		RewardID:      r.ID,
		DonationID:    rs.DonationID,
		Word:          rs.Word,
		RewardCreated: r.Created.Format(time.RFC3339),
	}, true
}

// Step closes every finished epoch: it folds the epoch's donations into the
// word count and rewards one donor who introduced a new word.
func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	now := b.deps.Clock.Now()
	epoch := b.deps.Clock.EpochStart(b.weekday, now, 0)
	next := b.deps.Clock.EpochStart(b.weekday, now, 1)

	last, err := b.deps.Clock.Parse(b.state.EpochStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("vocabulary epoch start: %w", err)
	}
	if !epoch.After(last) {
		return next, nil
	}

	donations, err := b.deps.API.ListDonations(ctx, platform.DonationFilter{
		CreatedAfter:  last,
		CreatedBefore: epoch,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("list epoch donations: %w", err)
	}
	sort.SliceStable(donations, func(i, j int) bool { return donations[i].Created.Before(donations[j].Created) })

	state := b.state
	state.WordCount = make(map[string]int, len(b.state.WordCount))
	for w, n := range b.state.WordCount {
		state.WordCount[w] = n
	}

	candidates, err := b.fold(state.WordCount, donations)
	if err != nil {
		return time.Time{}, err
	}

	if len(candidates) > 0 {
		winner := b.pick(candidates)
		rec, err := b.reward(ctx, epoch, winner)
		if err != nil {
			return time.Time{}, err
		}
		if rec.RewardID != "" && !hasReward(state.Recipients, rec.RewardID) {
			state.Recipients = append([]Recipient{rec}, state.Recipients...)
		}
	}

	state.Versioned = scratch.Versioned{Version: scratchVersion}
	state.EpochStart = epoch.Format(time.RFC3339)
	if err := b.save(ctx, state); err != nil {
		return time.Time{}, err
	}
	return next, nil
}

// fold adds the donations' words to count in creation order. The donor who
// used a word first becomes a candidate for it. Candidates are grouped by
// donor in first-seen order.
func (b *Bot) fold(count map[string]int, donations []domain.Donation) ([][]Recipient, error) {
	var (
		candidates [][]Recipient
		index      = map[string]int{}
	)
	for _, d := range donations {
		words, err := b.words.WordCount(d.Description)
		if err != nil {
			return nil, err
		}
		for _, word := range sortedWords(words) {
			if _, seen := count[word]; !seen {
				i, ok := index[d.User.ID]
				if !ok {
					i = len(candidates)
					index[d.User.ID] = i
					candidates = append(candidates, nil)
				}
				candidates[i] = append(candidates[i], Recipient{
					UserID:     d.User.ID,
					UserName:   d.User.Name,
					DonationID: d.ID,
					Word:       word,
				})
			}
			count[word] += words[word]
		}
	}
	return candidates, nil
}

func (b *Bot) pick(candidates [][]Recipient) Recipient {
	donor := candidates[b.deps.Rand.IntN(len(candidates))]
	return donor[b.deps.Rand.IntN(len(donor))]
}

func (b *Bot) reward(ctx context.Context, epoch time.Time, winner Recipient) (Recipient, error) {
	tag := "vocabulary:" + epoch.Format(time.DateOnly)
	raw, err := service.TaggedScratch(tag, map[string]any{
		"donation_id": winner.DonationID,
		"word":        winner.Word,
	})
	if err != nil {
		return Recipient{}, err
	}
	tags, err := b.deps.Rewards.Tags(ctx, platform.RewardFilter{RelatedActivity: b.activity.ID, CreatedAfter: epoch})
	if err != nil {
		return Recipient{}, err
	}
	// any reward made since the epoch began settles it
	for _, r := range tags {
		if rec, ok := recipientOf(r); ok {
			return rec, nil
		}
	}
	if len(tags) > 0 {
		return Recipient{}, nil
	}
	r, _, err := b.deps.Rewards.CreateOnceFrom(ctx, tags, tag,
		platform.RewardInput{
			Target:          winner.UserID,
			Amount:          b.params.RewardAmount,
			RelatedActivity: b.activity.ID,
			Description: fmt.Sprintf(rewardDescription,
				winner.UserName,
				winner.Word,
				b.deps.API.AppLink(winner.DonationID),
			),
			Scratch: raw,
		})
	if err != nil {
		return Recipient{}, err
	}
	winner.RewardID = r.ID
	winner.RewardCreated = r.Created.Format(time.RFC3339)
	return winner, nil
}

func hasReward(recipients []Recipient, id string) bool {
	for _, r := range recipients {
		if r.RewardID == id {
			return true
		}
	}
	return false
}

func (b *Bot) save(ctx context.Context, state State) error {
	activity, err := b.deps.Activities.Save(ctx, b.activity.ID, state, platform.ActivityInput{
		Title:       platform.String(activityTitle),
		Description: platform.String(b.describe(state)),
		RewardMin:   platform.Int64(b.params.RewardAmount),
	})
	if err != nil {
		return err
	}
	b.activity, b.state = activity, state
	return nil
}

func (b *Bot) describe(state State) string {
	recipients := make([]string, len(state.Recipients))
	for i, r := range state.Recipients {
		recipients[i] = fmt.Sprintf(recipientLine,
			r.UserName,
			b.deps.API.AppLink(r.UserID),
			r.Word,
			b.deps.API.AppLink(r.RewardID),
		)
	}

	type entry struct {
		word  string
		count int
	}
	entries := make([]entry, 0, len(state.WordCount))
	for w, n := range state.WordCount {
		entries = append(entries, entry{w, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})
	rows := make([]string, len(entries))
	for i, e := range entries {
		rows[i] = fmt.Sprintf(wordRow, e.word, e.count)
	}

	return fmt.Sprintf(activityDescription,
		b.params.Weekday,
		strings.Join(recipients, "\n"),
		strings.Join(rows, "\n"),
	)
}

func sortedWords(count map[string]int) []string {
	words := make([]string, 0, len(count))
	for w := range count {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
