package platform

import (
	"context"
	"time"

	"github.com/set-night/ibisbots/internal/domain"
)

// API is the slice of the platform the bots depend on. *Client implements it
// against the GraphQL endpoint; platformtest.Fake implements it in memory.
type API interface {
	BotID() string
	AppLink(id string) string
	InviteLink() string

	Node(ctx context.Context) (*domain.Node, error)
	Quote(ctx context.Context) (*domain.Quote, error)

	ListActivities(ctx context.Context, f ActivityFilter) ([]domain.Activity, error)
	CreateActivity(ctx context.Context, in ActivityInput) (*domain.Activity, error)
	UpdateActivity(ctx context.Context, in ActivityInput) (*domain.Activity, error)

	ListRewards(ctx context.Context, f RewardFilter) ([]domain.Reward, error)
	CreateReward(ctx context.Context, in RewardInput) (*domain.Reward, error)

	ListComments(ctx context.Context, f CommentFilter) ([]domain.Comment, error)
	CreateComment(ctx context.Context, in CommentInput) (*domain.Comment, error)
	CommentTree(ctx context.Context, root string) ([]domain.Comment, error)

	ListDonations(ctx context.Context, f DonationFilter) ([]domain.Donation, error)
	ListPeople(ctx context.Context, f PersonFilter) ([]domain.Person, error)
}

const (
	OrderCreated     = "created"
	OrderCreatedDesc = "-created"
	OrderDateJoined  = "date_joined"
)

type ActivityFilter struct {
	User          string
	Active        *bool
	First         int
	OrderBy       string
	CreatedBefore time.Time
}

// ActivityInput creates an activity when ID is empty and updates it
// otherwise. Nil fields are left untouched on update.
type ActivityInput struct {
	ID          string
	Title       *string
	Description *string
	Active      *bool
	RewardMin   *int64
	RewardRange *int64
	Scratch     *string
}

type RewardFilter struct {
	User            string
	RelatedActivity string
	CreatedAfter    time.Time
	OrderBy         string
}

type RewardInput struct {
	Target          string
	Amount          int64
	Description     string
	RelatedActivity string
	Scratch         string
}

type CommentFilter struct {
	Parent  string
	User    string
	First   int
	OrderBy string
}

type CommentInput struct {
	Parent      string
	Description string
}

type DonationFilter struct {
	User          string
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

type PersonFilter struct {
	Verified  *bool
	OrderBy   string
	LikeFor   string
	MentionIn string
}

func String(v string) *string { return &v }
func Bool(v bool) *bool       { return &v }
func Int64(v int64) *int64    { return &v }
