package platform

import (
	"context"
	"sort"

	"github.com/set-night/ibisbots/internal/domain"
)

func (c *Client) ListComments(ctx context.Context, f CommentFilter) ([]domain.Comment, error) {
	v := vars{}.str("parent", f.Parent).str("user", f.User).str("orderBy", f.OrderBy)

	nodes, err := listAll[commentDTO](ctx, c, "CommentList", queryCommentList, "commentList", v, f.First)
	if err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(nodes))
	for _, n := range nodes {
		cm, err := c.commentFromDTO(n)
		if err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, in CommentInput) (*domain.Comment, error) {
	input := map[string]any{
		"user":        c.botID,
		"parent":      in.Parent,
		"description": in.Description,
	}

	var payload struct {
		Comment commentDTO `json:"comment"`
	}
	if err := c.query(ctx, "CommentCreate", mutationCommentCreate, "commentCreate", map[string]any{"input": input}, &payload); err != nil {
		return nil, err
	}

	cm, err := c.commentFromDTO(payload.Comment)
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// CommentTree loads every reply below root, depth first, with replies
// attached to their parents in creation order.
func (c *Client) CommentTree(ctx context.Context, root string) ([]domain.Comment, error) {
	return BuildCommentTree(ctx, c, root)
}

// CommentLister is the single call BuildCommentTree needs.
type CommentLister interface {
	ListComments(ctx context.Context, f CommentFilter) ([]domain.Comment, error)
}

// BuildCommentTree assembles the reply tree below root from flat listings.
func BuildCommentTree(ctx context.Context, api CommentLister, root string) ([]domain.Comment, error) {
	return commentTree(ctx, api, root, map[string]bool{root: true})
}

func commentTree(ctx context.Context, api CommentLister, parent string, seen map[string]bool) ([]domain.Comment, error) {
	children, err := api.ListComments(ctx, CommentFilter{Parent: parent, OrderBy: OrderCreated})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Created.Before(children[j].Created)
	})

	tree := make([]domain.Comment, 0, len(children))
	for _, child := range children {
		if seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		replies, err := commentTree(ctx, api, child.ID, seen)
		if err != nil {
			return nil, err
		}
		child.Replies = replies
		tree = append(tree, child)
	}
	return tree, nil
}
