// Package dilemma runs rounds of the prisoner's dilemma between two players
// drawn from everyone who liked one of the bot's decision comments.
package dilemma

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
	"github.com/set-night/ibisbots/internal/service"
)

const scratchVersion = 1

// Choice is a drawn player's final decision. Random marks players who liked
// both comments.
type Choice struct {
	Player    domain.Person `json:"player"`
	Cooperate bool          `json:"cooperate"`
	Random    bool          `json:"random"`
}

// State is the round scratch. Final is written before any reward so a
// restarted bot pays the same two players.
type State struct {
	scratch.Versioned
	DefectComment    string   `json:"defect_comment,omitempty"`
	CooperateComment string   `json:"cooperate_comment,omitempty"`
	Final            []Choice `json:"final,omitempty"`
}

type Bot struct {
	deps     service.Deps
	params   config.DilemmaParams
	duration time.Duration
	activity *domain.Activity
	state    State
}

func New(deps service.Deps, params config.DilemmaParams) (*Bot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Bot{
		deps:     deps,
		params:   params,
		duration: time.Duration(params.DurationHours) * time.Hour,
	}, nil
}

func (b *Bot) Name() string { return config.BotDilemma }

func (b *Bot) Init(ctx context.Context) error {
	activity, _, err := b.deps.Activities.FindOrCreate(ctx, b.newRound)
	if err != nil {
		return err
	}
	return b.use(ctx, activity)
}

// use loads the round state, creating the decision comments when a previous
// run stopped before writing them.
func (b *Bot) use(ctx context.Context, activity *domain.Activity) error {
	var state State
	if !scratch.IsEmpty(activity.Scratch) {
		if err := scratch.Decode(activity.Scratch, &state, scratchVersion); err != nil {
			return fmt.Errorf("round %s: %w", activity.ID, err)
		}
	}
	b.activity = activity

	if state.DefectComment != "" && state.CooperateComment != "" {
		b.state = state
		return nil
	}

	existing, err := b.deps.API.ListComments(ctx, platform.CommentFilter{
		Parent:  activity.ID,
		User:    b.deps.API.BotID(),
		OrderBy: platform.OrderCreated,
	})
	if err != nil {
		return fmt.Errorf("list decision comments: %w", err)
	}
	for _, c := range existing {
		switch strings.TrimSpace(c.Description) {
		case defectComment:
			state.DefectComment = c.ID
		case cooperateComment:
			state.CooperateComment = c.ID
		}
	}
	for _, want := range []struct {
		id   *string
		text string
	}{
		{&state.DefectComment, defectComment},
		{&state.CooperateComment, cooperateComment},
	} {
		if *want.id != "" {
			continue
		}
		c, err := b.deps.API.CreateComment(ctx, platform.CommentInput{Parent: activity.ID, Description: want.text})
		if err != nil {
			return fmt.Errorf("create decision comment: %w", err)
		}
		*want.id = c.ID
	}

	state.Version = scratchVersion
	b.state = state
	return b.save(ctx, platform.ActivityInput{})
}

func (b *Bot) Step(ctx context.Context) (time.Time, error) {
	now := b.deps.Clock.Now()
	next := now.Add(b.params.PollInterval)

	players, cooperators, defectors, err := b.players(ctx)
	if err != nil {
		return time.Time{}, err
	}
	node, err := b.deps.Activities.Node(ctx)
	if err != nil {
		return time.Time{}, err
	}
	description := b.describe(node.Name, players)

	ready := len(players) >= b.params.MinPlayers && now.After(b.activity.Created.Add(b.duration))
	if len(b.state.Final) == 0 && !ready {
		if err := b.save(ctx, platform.ActivityInput{Description: platform.String(description)}); err != nil {
			return time.Time{}, err
		}
		return next, nil
	}

	if len(b.state.Final) == 0 {
		b.state.Final = b.Draw(players, cooperators, defectors)
		if err := b.save(ctx, platform.ActivityInput{Description: platform.String(description)}); err != nil {
			return time.Time{}, err
		}
	}
	first, second := b.state.Final[0], b.state.Final[1]
	amount1, amount2, desc1, desc2, conclusion := b.Payoff(first, second)

	for _, pay := range []struct {
		choice Choice
		amount int64
		desc   string
	}{
		{first, amount1, desc1},
		{second, amount2, desc2},
	} {
		if pay.amount <= 0 {
			continue
		}
		_, _, err := b.deps.Rewards.CreateOnce(ctx,
			fmt.Sprintf("dilemma:%s:%s", b.activity.ID, pay.choice.Player.ID),
			platform.RewardFilter{RelatedActivity: b.activity.ID},
			platform.RewardInput{
				Target:          pay.choice.Player.ID,
				Amount:          pay.amount,
				Description:     pay.desc,
				RelatedActivity: b.activity.ID,
			})
		if err != nil {
			return time.Time{}, err
		}
	}

	closing := description + fmt.Sprintf(activityClose,
		conclusion,
		first.Player.Username, decision(first.Cooperate), randomMark(first.Random),
		second.Player.Username, decision(second.Cooperate), randomMark(second.Random),
	)
	if _, err := b.deps.Activities.Close(ctx, b.activity.ID, platform.ActivityInput{Description: platform.String(closing)}); err != nil {
		return time.Time{}, err
	}

	in, err := b.newRound(ctx)
	if err != nil {
		return time.Time{}, err
	}
	in.Active = platform.Bool(true)
	activity, err := b.deps.Activities.Create(ctx, in)
	if err != nil {
		return time.Time{}, err
	}
	if err := b.use(ctx, activity); err != nil {
		return time.Time{}, err
	}
	return next, nil
}

// players returns everyone who liked a decision comment, cooperators first,
// plus the two liker sets.
func (b *Bot) players(ctx context.Context) ([]domain.Person, map[string]bool, map[string]bool, error) {
	likers := func(comment string) ([]domain.Person, map[string]bool, error) {
		people, err := b.deps.API.ListPeople(ctx, platform.PersonFilter{LikeFor: comment})
		if err != nil {
			return nil, nil, fmt.Errorf("list likes of %s: %w", comment, err)
		}
		set := make(map[string]bool, len(people))
		for _, p := range people {
			set[p.ID] = true
		}
		return people, set, nil
	}

	coop, cooperators, err := likers(b.state.CooperateComment)
	if err != nil {
		return nil, nil, nil, err
	}
	defect, defectors, err := likers(b.state.DefectComment)
	if err != nil {
		return nil, nil, nil, err
	}

	players := coop
	for _, p := range defect {
		if !cooperators[p.ID] {
			players = append(players, p)
		}
	}
	return players, cooperators, defectors, nil
}

// Draw picks two distinct players and settles their decisions; a player who
// liked both comments gets a coin flip.
func (b *Bot) Draw(players []domain.Person, cooperators, defectors map[string]bool) []Choice {
	i := b.deps.Rand.IntN(len(players))
	j := b.deps.Rand.IntN(len(players) - 1)
	if j >= i {
		j++
	}

	choices := make([]Choice, 0, 2)
	for _, p := range []domain.Person{players[i], players[j]} {
		c := Choice{Player: p}
		switch {
		case cooperators[p.ID] && defectors[p.ID]:
			c.Cooperate = b.deps.Rand.Float64() < 0.5
			c.Random = true
		case cooperators[p.ID]:
			c.Cooperate = true
		}
		choices = append(choices, c)
	}
	return choices
}

// Payoff applies the reward matrix to two decisions.
func (b *Bot) Payoff(first, second Choice) (int64, int64, string, string, string) {
	p := b.params
	switch {
	case first.Cooperate && second.Cooperate:
		return p.AmountCooperate, p.AmountCooperate, descCooperate, descCooperate,
			fmt.Sprintf(conclusionCooperate, first.Player.Name, second.Player.Name)
	case !first.Cooperate && !second.Cooperate:
		return p.AmountDefect, p.AmountDefect, descDefect, descDefect,
			fmt.Sprintf(conclusionDefect, first.Player.Name, second.Player.Name)
	case first.Cooperate:
		return p.AmountLose, p.AmountWin, descLose, descWin,
			fmt.Sprintf(conclusionMixed, second.Player.Name, first.Player.Name)
	default:
		return p.AmountWin, p.AmountLose, descWin, descLose,
			fmt.Sprintf(conclusionMixed, first.Player.Name, second.Player.Name)
	}
}

func (b *Bot) newRound(ctx context.Context) (platform.ActivityInput, error) {
	node, err := b.deps.Activities.Node(ctx)
	if err != nil {
		return platform.ActivityInput{}, err
	}
	amounts := []int64{b.params.AmountCooperate, b.params.AmountDefect, b.params.AmountWin, b.params.AmountLose}
	lo, hi := amounts[0], amounts[0]
	for _, a := range amounts[1:] {
		lo, hi = min(lo, a), max(hi, a)
	}
	return platform.ActivityInput{
		Title:       platform.String(fmt.Sprintf(activityTitle, node.ActivityCount+1)),
		Description: platform.String(b.describe(node.Name, nil)),
		RewardMin:   platform.Int64(lo),
		RewardRange: platform.Int64(hi - lo),
	}, nil
}

func (b *Bot) save(ctx context.Context, in platform.ActivityInput) error {
	activity, err := b.deps.Activities.Save(ctx, b.activity.ID, b.state, in)
	if err != nil {
		return err
	}
	b.activity = activity
	return nil
}

func (b *Bot) describe(botName string, players []domain.Person) string {
	participants := noParticipants
	if len(players) > 0 {
		names := make([]string, len(players))
		for i, p := range players {
			names[i] = "* " + p.Name
		}
		participants = strings.Join(names, "\n")
	}
	return fmt.Sprintf(activityDescription,
		botName,
		domain.FormatAmount(b.params.AmountDefect),
		domain.FormatAmount(b.params.AmountLose),
		domain.FormatAmount(b.params.AmountWin),
		domain.FormatAmount(b.params.AmountCooperate),
		participants,
	)
}

func decision(cooperate bool) string {
	if cooperate {
		return "cooperate"
	}
	return "defect"
}

func randomMark(random bool) string {
	if random {
		return " (random)"
	}
	return ""
}
