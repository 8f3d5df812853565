package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/set-night/ibisbots/internal/domain"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/scratch"
)

const nodeCacheTTL = 10 * time.Minute

// ActivityService manages the activities owned by one bot.
type ActivityService struct {
	api      platform.API
	bot      string
	notifier Notifier
	node     *Cache[domain.Node]
}

func NewActivityService(api platform.API, bot string, notifier Notifier) *ActivityService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ActivityService{
		api:      api,
		bot:      bot,
		notifier: notifier,
		node:     NewCache[domain.Node](nodeCacheTTL),
	}
}

// Active returns the bot's newest active activity.
func (s *ActivityService) Active(ctx context.Context) (*domain.Activity, error) {
	list, err := s.api.ListActivities(ctx, platform.ActivityFilter{
		User:    s.api.BotID(),
		Active:  platform.Bool(true),
		First:   1,
		OrderBy: platform.OrderCreatedDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("list active activities: %w", err)
	}
	if len(list) == 0 {
		return nil, domain.ErrActivityNotFound
	}
	return &list[0], nil
}

// FindOrCreate returns the bot's active activity. When there is none, fresh
// builds the input for a new one. The bool reports whether it was created.
func (s *ActivityService) FindOrCreate(ctx context.Context, fresh func(ctx context.Context) (platform.ActivityInput, error)) (*domain.Activity, bool, error) {
	activity, err := s.Active(ctx)
	if err == nil {
		return activity, false, nil
	}
	if !errors.Is(err, domain.ErrActivityNotFound) {
		return nil, false, err
	}

	in, err := fresh(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("prepare activity: %w", err)
	}
	if in.Active == nil {
		in.Active = platform.Bool(true)
	}
	activity, err = s.Create(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return activity, true, nil
}

// List returns the bot's own activities matching f.
func (s *ActivityService) List(ctx context.Context, f platform.ActivityFilter) ([]domain.Activity, error) {
	f.User = s.api.BotID()
	list, err := s.api.ListActivities(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return list, nil
}

func (s *ActivityService) Create(ctx context.Context, in platform.ActivityInput) (*domain.Activity, error) {
	in.ID = ""
	activity, err := s.api.CreateActivity(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	s.node.Invalidate()
	return activity, nil
}

func (s *ActivityService) Update(ctx context.Context, in platform.ActivityInput) (*domain.Activity, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("update activity: %w", domain.ErrActivityNotFound)
	}
	activity, err := s.api.UpdateActivity(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("update activity %s: %w", in.ID, err)
	}
	return activity, nil
}

// Save writes rec into the activity's scratch together with the other fields
// set on in.
func (s *ActivityService) Save(ctx context.Context, id string, rec scratch.Record, in platform.ActivityInput) (*domain.Activity, error) {
	raw, err := scratch.Encode(rec)
	if err != nil {
		return nil, err
	}
	in.ID = id
	in.Scratch = &raw
	return s.Update(ctx, in)
}

// Close deactivates the activity, applying any final edits in the same call.
func (s *ActivityService) Close(ctx context.Context, id string, in platform.ActivityInput) (*domain.Activity, error) {
	in.ID = id
	in.Active = platform.Bool(false)
	activity, err := s.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	s.notifier.ActivityClosed(ctx, s.bot, *activity)
	return activity, nil
}

// Node returns the bot's own account, cached between steps.
func (s *ActivityService) Node(ctx context.Context) (*domain.Node, error) {
	if node, ok := s.node.Get(); ok {
		return &node, nil
	}
	node, err := s.api.Node(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bot node: %w", err)
	}
	s.node.Set(*node)
	return node, nil
}
