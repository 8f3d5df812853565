package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/set-night/ibisbots/internal/domain"
)

func (c *Client) ListPeople(ctx context.Context, f PersonFilter) ([]domain.Person, error) {
	v := vars{}.boolean("verified", f.Verified).str("orderBy", f.OrderBy).
		str("likeFor", f.LikeFor).str("mentionIn", f.MentionIn)

	nodes, err := listAll[personDTO](ctx, c, "PersonList", queryPersonList, "personList", v, 0)
	if err != nil {
		return nil, err
	}

	people := make([]domain.Person, 0, len(nodes))
	for _, n := range nodes {
		people = append(people, n.toDomain())
	}
	return people, nil
}

// Node fetches the bot's own account.
func (c *Client) Node(ctx context.Context) (*domain.Node, error) {
	var dto struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Username      string `json:"username"`
		ActivityCount int    `json:"activityCount"`
	}
	if err := c.query(ctx, "BotNode", queryBotNode, "bot", map[string]any{"id": c.botID}, &dto); err != nil {
		return nil, err
	}
	return &domain.Node{ID: dto.ID, Name: dto.Name, Username: dto.Username, ActivityCount: dto.ActivityCount}, nil
}

// Quote fetches a random opening quote from the platform.
func (c *Client) Quote(ctx context.Context) (*domain.Quote, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/ibis/quote/", nil)
	if err != nil {
		return nil, &RequestError{Op: "Quote", StatusCode: status, Err: err}
	}
	var q domain.Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, &RequestError{Op: "Quote", StatusCode: status, Err: fmt.Errorf("decode quote: %w", err)}
	}
	return &q, nil
}
