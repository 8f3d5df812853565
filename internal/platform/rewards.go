package platform

import (
	"context"

	"github.com/set-night/ibisbots/internal/domain"
)

func (c *Client) ListRewards(ctx context.Context, f RewardFilter) ([]domain.Reward, error) {
	v := vars{}.str("user", f.User).str("relatedActivity", f.RelatedActivity).str("orderBy", f.OrderBy)
	if !f.CreatedAfter.IsZero() {
		v["createdAfter"] = formatTime(f.CreatedAfter)
	}

	nodes, err := listAll[rewardDTO](ctx, c, "RewardList", queryRewardList, "rewardList", v, 0)
	if err != nil {
		return nil, err
	}

	rewards := make([]domain.Reward, 0, len(nodes))
	for _, n := range nodes {
		r, err := c.rewardFromDTO(n)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, r)
	}
	return rewards, nil
}

func (c *Client) CreateReward(ctx context.Context, in RewardInput) (*domain.Reward, error) {
	input := map[string]any{
		"user":        c.botID,
		"target":      in.Target,
		"amount":      in.Amount,
		"description": in.Description,
	}
	if in.RelatedActivity != "" {
		input["relatedActivity"] = in.RelatedActivity
	}
	if in.Scratch != "" {
		input["scratch"] = in.Scratch
	}

	var payload struct {
		Reward rewardDTO `json:"reward"`
	}
	if err := c.query(ctx, "RewardCreate", mutationRewardCreate, "rewardCreate", map[string]any{"input": input}, &payload); err != nil {
		return nil, err
	}

	r, err := c.rewardFromDTO(payload.Reward)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
