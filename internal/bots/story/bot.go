// Package story publishes a collaborative story one entry per day. Readers
// submit entries under a daily slot; the most liked one wins, and a language
// model writes the entry when nobody submits.
package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/nlp"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
	"github.com/set-night/ibisbots/internal/textgen"
)

const (
	scratchVersion = 1

	kindTOC  = "toc"
	kindPage = "page"
)

// Entry is one published piece of the story.
type Entry struct {
	User domain.Person `json:"user"`
	Text string        `json:"text"`
}

// PageState is the scratch of a page activity.
type PageState struct {
	scratch.Versioned
	Type      string  `json:"type"`
	Number    int     `json:"number"`
	IntroLink string  `json:"intro_link"`
	PrevLink  string  `json:"prev_link"`
	NextLink  string  `json:"next_link"`
	Entries   []Entry `json:"entries"`
}

// PageInfo is a table of contents line.
type PageInfo struct {
	Link         string          `json:"link"`
	Created      string          `json:"created"`
	Contributors []domain.Person `json:"contributors"`
}

// TOCState is the scratch of the table of contents activity.
type TOCState struct {
	scratch.Versioned
	Type  string     `json:"type"`
	Pages []PageInfo `json:"pages"`
}

type Bot struct {
	deps   service.Deps
	params config.StoryParams
	gen    textgen.Generator

	toc      *domain.Activity
	tocState TOCState
	page     *domain.Activity
	state    PageState
}

func New(deps service.Deps, params config.StoryParams, gen textgen.Generator) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, fmt.Errorf("story: nil text generator: %w", domain.ErrInvalidParams)
	}
	return &Bot{deps: deps, params: params, gen: gen}, nil
}

func (b *Bot) Name() string { return config.BotStory }

// Init finds the table of contents and the newest page, creating the first
// of each when the story has not started yet.
func (b *Bot) Init(ctx context.Context) error {
	if err := b.loadTOC(ctx); err != nil {
		return err
	}
	return b.loadPage(ctx)
}

func (b *Bot) loadTOC(ctx context.Context) error {
	list, err := b.deps.Activities.List(ctx, platform.ActivityFilter{
		Active:  platform.Bool(false),
		First:   1,
		OrderBy: platform.OrderCreated,
	})
	if err != nil {
		return err
	}
	if len(list) > 0 && kindOf(list[0].Scratch) == kindTOC {
		var state TOCState
		if err := scratch.Decode(list[0].Scratch, &state, scratchVersion); err != nil {
			return fmt.Errorf("story contents %s: %w", list[0].ID, err)
		}
		b.toc, b.tocState = &list[0], state
		return nil
	}

	state := TOCState{Versioned: scratch.Versioned{Version: scratchVersion}, Type: kindTOC, Pages: []PageInfo{}}
	raw, err := scratch.Encode(state)
	if err != nil {
		return err
	}
	toc, err := b.deps.Activities.Create(ctx, platform.ActivityInput{
		Title:       platform.String(tocTitle),
		Description: platform.String(pending),
		Active:      platform.Bool(false),
		RewardMin:   platform.Int64(0),
		Scratch:     &raw,
	})
	if err != nil {
		return err
	}
	b.deps.Logger.Info("created story contents", "activity_id", toc.ID)
	b.toc, b.tocState = toc, state
	return nil
}

func (b *Bot) loadPage(ctx context.Context) error {
	list, err := b.deps.Activities.List(ctx, platform.ActivityFilter{
		First:   2,
		OrderBy: platform.OrderCreatedDesc,
	})
	if err != nil {
		return err
	}
	var (
		found *domain.Activity
		state PageState
	)
	for i := range list {
		s, ok, err := decodePage(list[i])
		if err != nil {
			return err
		}
		if ok && (found == nil || s.Number > state.Number) {
			found, state = &list[i], s
		}
	}
	if found != nil {
		b.page, b.state = found, state
		return nil
	}

	page, state, err := b.createPage(ctx, 1, "")
	if err != nil {
		return err
	}
	b.page, b.state = page, state
	return nil
}

func (b *Bot) createPage(ctx context.Context, number int, prevLink string) (*domain.Activity, PageState, error) {
	state := PageState{
		Versioned: scratch.Versioned{Version: scratchVersion},
		Type:      kindPage,
		Number:    number,
		IntroLink: b.deps.API.AppLink(b.toc.ID),
		PrevLink:  prevLink,
		Entries:   []Entry{},
	}
	raw, err := scratch.Encode(state)
	if err != nil {
		return nil, PageState{}, err
	}
	page, err := b.deps.Activities.Create(ctx, platform.ActivityInput{
		Title:       platform.String(fmt.Sprintf(pageTitle, number)),
		Description: platform.String(pending),
		Active:      platform.Bool(true),
		RewardMin:   platform.Int64(b.params.RewardAmount),
		Scratch:     &raw,
	})
	if err != nil {
		return nil, PageState{}, err
	}
	b.deps.Logger.Info("opened story page", "activity_id", page.ID, "page", number)
	return page, state, nil
}

// Step settles the latest slot once its day is over: it publishes an entry,
// pays the author, and opens the next slot or page.
func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	now := b.deps.Clock.Now()
	wake := b.deps.Clock.NextMidnight(now)

	bootstrap := b.state.Number == 1 && len(b.state.Entries) == 0
	root, slots, err := b.preparePage(ctx, now, bootstrap)
	if err != nil {
		return time.Time{}, err
	}

	slot := slots[len(slots)-1]
	if !bootstrap && !b.deps.Clock.DayStart(slot.Created, 0).Before(b.deps.Clock.DayStart(now, 0)) {
		return wake, nil
	}

	if err := b.closeSlot(ctx, slot); err != nil {
		return time.Time{}, err
	}

	if len(b.state.Entries) < len(slots) {
		entry, err := b.chooseEntry(ctx, slot, bootstrap)
		if err != nil {
			return time.Time{}, err
		}
		state := b.state
		state.Entries = append(slices.Clone(b.state.Entries), entry)
		if err := b.savePage(ctx, state); err != nil {
			return time.Time{}, err
		}
	}

	if err := b.updateTOC(ctx); err != nil {
		return time.Time{}, err
	}
	if err := b.reward(ctx); err != nil {
		return time.Time{}, err
	}

	if len(slots) < b.params.PageLength {
		if err := b.openSlot(ctx, root.ID, now); err != nil {
			return time.Time{}, err
		}
		return wake, nil
	}
	if err := b.turnPage(ctx, now); err != nil {
		return time.Time{}, err
	}
	return wake, nil
}

// preparePage links the previous page forward and makes sure the page has its
// instruction comment and at least one slot.
func (b *Bot) preparePage(ctx context.Context, now time.Time, bootstrap bool) (domain.Comment, []domain.Comment, error) {
	if b.state.Number > 1 {
		prev, prevState, err := b.pageBefore(ctx, *b.page, b.state.Number)
		switch {
		case errors.Is(err, domain.ErrActivityNotFound):
			b.deps.Logger.Warn("previous story page missing", "page", b.state.Number)
		case err != nil:
			return domain.Comment{}, nil, err
		default:
			if link := b.deps.API.AppLink(b.page.ID); prevState.NextLink != link {
				prevState.NextLink = link
				if _, err := b.deps.Activities.Save(ctx, prev.ID, prevState, platform.ActivityInput{
					Description: platform.String(b.renderPage(prevState)),
				}); err != nil {
					return domain.Comment{}, nil, err
				}
			}
		}
	}

	roots, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent:  b.page.ID,
		User:    b.deps.API.BotID(),
		First:   1,
		OrderBy: platform.OrderCreated,
	})
	if err != nil {
		return domain.Comment{}, nil, fmt.Errorf("list page comments: %w", err)
	}
	var root domain.Comment
	if len(roots) > 0 {
		root = roots[0]
	} else {
		c, err := b.deps.API.CreateComment(ctx, platform.CommentInput{Parent: b.page.ID, Description: rootDescription})
		if err != nil {
			return domain.Comment{}, nil, fmt.Errorf("create instructions: %w", err)
		}
		root = *c
	}

	slots, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent:  root.ID,
		User:    b.deps.API.BotID(),
		OrderBy: platform.OrderCreated,
	})
	if err != nil {
		return domain.Comment{}, nil, fmt.Errorf("list slots: %w", err)
	}
	if len(slots) == 0 {
		description := fmt.Sprintf(slotDescription, now.Format(slotDate))
		if bootstrap {
			description = initialSlot
		}
		c, err := b.deps.API.CreateComment(ctx, platform.CommentInput{Parent: root.ID, Description: description})
		if err != nil {
			return domain.Comment{}, nil, fmt.Errorf("create slot: %w", err)
		}
		slots = []domain.Comment{*c}
	}

	if err := b.savePage(ctx, b.state); err != nil {
		return domain.Comment{}, nil, err
	}
	return root, slots, nil
}

func (b *Bot) closeSlot(ctx context.Context, slot domain.Comment) error {
	closed, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent: slot.ID,
		User:   b.deps.API.BotID(),
		First:  1,
	})
	if err != nil {
		return fmt.Errorf("list slot replies: %w", err)
	}
	if len(closed) > 0 {
		return nil
	}
	if _, err := b.deps.API.CreateComment(ctx, platform.CommentInput{Parent: slot.ID, Description: closeDescription}); err != nil {
		return fmt.Errorf("close slot %s: %w", slot.ID, err)
	}
	return nil
}

func (b *Bot) openSlot(ctx context.Context, root string, now time.Time) error {
	if _, err := b.deps.API.CreateComment(ctx, platform.CommentInput{
		Parent:      root,
		Description: fmt.Sprintf(slotDescription, now.Format(slotDate)),
	}); err != nil {
		return fmt.Errorf("open slot: %w", err)
	}
	return nil
}

// chooseEntry picks the most liked submission to slot, breaking ties at
// random, and falls back to generated text.
func (b *Bot) chooseEntry(ctx context.Context, slot domain.Comment, bootstrap bool) (Entry, error) {
	replies, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent:  slot.ID,
		OrderBy: platform.OrderCreated,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("list submissions: %w", err)
	}
	var best []domain.Comment
	for _, c := range replies {
		if c.User.ID == b.deps.API.BotID() {
			continue
		}
		switch {
		case len(best) == 0 || c.LikeCount > best[0].LikeCount:
			best = []domain.Comment{c}
		case c.LikeCount == best[0].LikeCount:
			best = append(best, c)
		}
	}
	if len(best) > 0 {
		winner := best[b.deps.Rand.IntN(len(best))]
		return Entry{User: winner.User, Text: winner.Description}, nil
	}

	text, err := b.generate(ctx, bootstrap)
	if err != nil {
		return Entry{}, err
	}
	return Entry{User: slot.User, Text: text}, nil
}

func (b *Bot) generate(ctx context.Context, bootstrap bool) (string, error) {
	prompt := startContext
	if !bootstrap {
		c, err := b.storyContext(ctx)
		if err != nil {
			return "", err
		}
		if c != "" {
			prompt = c
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, config.TextgenTimeout)
	defer cancel()

	start := time.Now()
	raw, err := b.gen.Generate(genCtx, prompt, b.params.TextLength)
	if err != nil {
		return "", fmt.Errorf("generate story entry: %w", err)
	}
	text, err := nlp.TrimDangling(raw)
	if err != nil {
		return "", err
	}
	if text == "" {
		text = raw
	}
	b.deps.Logger.Info("generated story entry",
		"page", b.state.Number,
		"context_chars", len(prompt),
		"duration", time.Since(start),
	)
	if bootstrap {
		text = startContext + " " + text
	}
	return text, nil
}

// storyContext returns the last ContextLength tokens of the story, walking
// back across pages as needed.
func (b *Bot) storyContext(ctx context.Context) (string, error) {
	var (
		tokens   []string
		activity = *b.page
		state    = b.state
		i        = len(state.Entries) - 1
	)
	for len(tokens) < b.params.ContextLength {
		if i < 0 {
			prev, prevState, err := b.pageBefore(ctx, activity, state.Number)
			if errors.Is(err, domain.ErrActivityNotFound) {
				b.deps.Logger.Info("incomplete story context", "tokens", len(tokens))
				break
			}
			if err != nil {
				return "", err
			}
			activity, state, i = prev, prevState, len(prevState.Entries)-1
			continue
		}
		tokens = append(nlp.Tokens(state.Entries[i].Text+"\n\n"), tokens...)
		i--
	}
	if len(tokens) > b.params.ContextLength {
		tokens = tokens[len(tokens)-b.params.ContextLength:]
	}
	return strings.TrimSpace(strings.Join(tokens, "")), nil
}

// pageBefore finds page number-1, created before activity.
func (b *Bot) pageBefore(ctx context.Context, activity domain.Activity, number int) (domain.Activity, PageState, error) {
	if number <= 1 {
		return domain.Activity{}, PageState{}, domain.ErrActivityNotFound
	}
	list, err := b.deps.Activities.List(ctx, platform.ActivityFilter{
		CreatedBefore: activity.Created,
		OrderBy:       platform.OrderCreatedDesc,
		First:         3,
	})
	if err != nil {
		return domain.Activity{}, PageState{}, err
	}
	for _, a := range list {
		state, ok, err := decodePage(a)
		if err != nil {
			return domain.Activity{}, PageState{}, err
		}
		if ok && state.Number == number-1 {
			return a, state, nil
		}
	}
	return domain.Activity{}, PageState{}, domain.ErrActivityNotFound
}

func (b *Bot) turnPage(ctx context.Context, now time.Time) error {
	closed, err := b.deps.Activities.Close(ctx, b.page.ID, platform.ActivityInput{})
	if err != nil {
		return err
	}
	page, state, err := b.createPage(ctx, b.state.Number+1, b.deps.API.AppLink(closed.ID))
	if err != nil {
		return err
	}
	b.page, b.state = page, state
	if _, _, err := b.preparePage(ctx, now, false); err != nil {
		return err
	}
	return b.updateTOC(ctx)
}

// reward pays the author of the newest entry, once per page and only if they
// are a person.
func (b *Bot) reward(ctx context.Context) error {
	entry := b.state.Entries[len(b.state.Entries)-1]
	if !entry.User.IsHuman() {
		return nil
	}
	_, _, err := b.deps.Rewards.CreateOnce(ctx,
		fmt.Sprintf("story:%s:%s", b.page.ID, entry.User.ID),
		platform.RewardFilter{RelatedActivity: b.page.ID},
		platform.RewardInput{
			Target:          entry.User.ID,
			Amount:          b.params.RewardAmount,
			Description:     rewardDescription,
			RelatedActivity: b.page.ID,
		})
	return err
}

func (b *Bot) savePage(ctx context.Context, state PageState) error {
	page, err := b.deps.Activities.Save(ctx, b.page.ID, state, platform.ActivityInput{
		Title:       platform.String(fmt.Sprintf(pageTitle, state.Number)),
		Description: platform.String(b.renderPage(state)),
	})
	if err != nil {
		return err
	}
	b.page, b.state = page, state
	return nil
}

func (b *Bot) renderPage(s PageState) string {
	content := fmt.Sprintf(previously, s.PrevLink)
	if len(s.Entries) > 0 {
		lines := make([]string, len(s.Entries))
		for i, e := range s.Entries {
			lines[i] = fmt.Sprintf(entryLine, e.Text, e.User.Username)
		}
		content = strings.Join(lines, "\n\n")
	}
	nav := fmt.Sprintf(navPage, s.Number, s.IntroLink)
	if s.PrevLink != "" {
		nav += fmt.Sprintf(navPrev, s.PrevLink)
	}
	if s.NextLink != "" {
		nav += fmt.Sprintf(navNext, s.NextLink)
	}
	return fmt.Sprintf(pageDescription, s.Number, s.IntroLink, content, nav)
}

func (b *Bot) updateTOC(ctx context.Context) error {
	contributors := make([]domain.Person, len(b.state.Entries))
	for i, e := range b.state.Entries {
		contributors[i] = e.User
	}
	info := PageInfo{
		Link:         b.deps.API.AppLink(b.page.ID),
		Created:      b.page.Created.Format(time.RFC3339),
		Contributors: contributors,
	}

	state := b.tocState
	state.Pages = slices.Clone(state.Pages)
	if n := b.state.Number; n > len(state.Pages) {
		state.Pages = append(state.Pages, info)
	} else {
		state.Pages[n-1] = info
	}

	toc, err := b.deps.Activities.Save(ctx, b.toc.ID, state, platform.ActivityInput{
		Title:       platform.String(tocTitle),
		Description: platform.String(b.renderTOC(state)),
	})
	if err != nil {
		return err
	}
	b.toc, b.tocState = toc, state
	return nil
}

func (b *Bot) renderTOC(s TOCState) string {
	rows := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		published := p.Created
		if t, err := b.deps.Clock.Parse(p.Created); err == nil {
			published = t.Format("01.02.06")
		}
		rows[i] = fmt.Sprintf(tocRow, i+1, p.Link, published, contributorNames(p.Contributors))
	}
	return fmt.Sprintf(tocDescription, strings.Join(rows, "\n"))
}

func contributorNames(people []domain.Person) string {
	seen := map[string]bool{}
	var names []string
	for _, p := range people {
		if !seen[p.FirstName] {
			seen[p.FirstName] = true
			names = append(names, p.FirstName)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func kindOf(raw string) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return ""
	}
	return probe.Type
}

func decodePage(a domain.Activity) (PageState, bool, error) {
	if kindOf(a.Scratch) != kindPage {
		return PageState{}, false, nil
	}
	var state PageState
	if err := scratch.Decode(a.Scratch, &state, scratchVersion); err != nil {
		return PageState{}, false, fmt.Errorf("story page %s: %w", a.ID, err)
	}
	return state, true, nil
}
