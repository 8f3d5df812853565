package platform

import (
	"context"

	"github.com/set-night/ibisbots/internal/domain"
)

func (c *Client) ListActivities(ctx context.Context, f ActivityFilter) ([]domain.Activity, error) {
	v := vars{}.str("user", f.User).boolean("active", f.Active).str("orderBy", f.OrderBy)
	if !f.CreatedBefore.IsZero() {
		v["createdBefore"] = formatTime(f.CreatedBefore)
	}

	nodes, err := listAll[activityDTO](ctx, c, "ActivityList", queryActivityList, "activityList", v, f.First)
	if err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, 0, len(nodes))
	for _, n := range nodes {
		a, err := c.activityFromDTO(n)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func (c *Client) CreateActivity(ctx context.Context, in ActivityInput) (*domain.Activity, error) {
	return c.saveActivity(ctx, "ActivityCreate", mutationActivityCreate, "activityCreate", in)
}

func (c *Client) UpdateActivity(ctx context.Context, in ActivityInput) (*domain.Activity, error) {
	return c.saveActivity(ctx, "ActivityUpdate", mutationActivityUpdate, "activityUpdate", in)
}

func (c *Client) saveActivity(ctx context.Context, op, document, field string, in ActivityInput) (*domain.Activity, error) {
	input := map[string]any{}
	if in.ID != "" {
		input["id"] = in.ID
	} else {
		input["user"] = c.botID
	}
	if in.Title != nil {
		input["title"] = *in.Title
	}
	if in.Description != nil {
		input["description"] = *in.Description
	}
	if in.Active != nil {
		input["active"] = *in.Active
	}
	if in.RewardMin != nil {
		input["rewardMin"] = *in.RewardMin
	}
	if in.RewardRange != nil {
		input["rewardRange"] = *in.RewardRange
	}
	if in.Scratch != nil {
		input["scratch"] = *in.Scratch
	}

	var payload struct {
		Activity activityDTO `json:"activity"`
	}
	if err := c.query(ctx, op, document, field, map[string]any{"input": input}, &payload); err != nil {
		return nil, err
	}

	a, err := c.activityFromDTO(payload.Activity)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
