package platform

import (
	"time"

	"github.com/set-night/ibisbots/internal/domain"
)

type personDTO struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	FirstName        string `json:"firstName"`
	Name             string `json:"name"`
	UserType         string `json:"userType"`
	Verified         bool   `json:"verified"`
	VerifiedOriginal bool   `json:"verifiedOriginal"`
	Referral         *struct {
		ID string `json:"id"`
	} `json:"referral"`
}

func (p personDTO) toDomain() domain.Person {
	person := domain.Person{
		ID:               p.ID,
		Username:         p.Username,
		FirstName:        p.FirstName,
		Name:             p.Name,
		UserType:         domain.UserType(p.UserType),
		Verified:         p.Verified,
		VerifiedOriginal: p.VerifiedOriginal,
	}
	if p.Referral != nil {
		person.Referral = p.Referral.ID
	}
	return person
}

type activityDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	RewardMin   int64     `json:"rewardMin"`
	RewardRange int64     `json:"rewardRange"`
	Scratch     string    `json:"scratch"`
	Created     string    `json:"created"`
	User        personDTO `json:"user"`
}

type rewardDTO struct {
	ID              string    `json:"id"`
	Target          personDTO `json:"target"`
	User            personDTO `json:"user"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	RelatedActivity *struct {
		ID string `json:"id"`
	} `json:"relatedActivity"`
	Scratch string `json:"scratch"`
	Created string `json:"created"`
}

type commentDTO struct {
	ID     string `json:"id"`
	Parent *struct {
		ID string `json:"id"`
	} `json:"parent"`
	User        personDTO `json:"user"`
	Description string    `json:"description"`
	Created     string    `json:"created"`
	LikeCount   int       `json:"likeCount"`
}

type donationDTO struct {
	ID          string    `json:"id"`
	User        personDTO `json:"user"`
	Target      personDTO `json:"target"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Created     string    `json:"created"`
}

func (c *Client) parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return c.clock.Parse(raw)
}

func (c *Client) activityFromDTO(d activityDTO) (domain.Activity, error) {
	created, err := c.parseTime(d.Created)
	if err != nil {
		return domain.Activity{}, err
	}
	return domain.Activity{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Active:      d.Active,
		RewardMin:   d.RewardMin,
		RewardRange: d.RewardRange,
		Scratch:     d.Scratch,
		Created:     created,
		User:        d.User.toDomain(),
	}, nil
}

func (c *Client) rewardFromDTO(d rewardDTO) (domain.Reward, error) {
	created, err := c.parseTime(d.Created)
	if err != nil {
		return domain.Reward{}, err
	}
	reward := domain.Reward{
		ID:          d.ID,
		Target:      d.Target.toDomain(),
		User:        d.User.toDomain(),
		Amount:      d.Amount,
		Description: d.Description,
		Scratch:     d.Scratch,
		Created:     created,
	}
	if d.RelatedActivity != nil {
		reward.RelatedActivity = d.RelatedActivity.ID
	}
	return reward, nil
}

func (c *Client) commentFromDTO(d commentDTO) (domain.Comment, error) {
	created, err := c.parseTime(d.Created)
	if err != nil {
		return domain.Comment{}, err
	}
	comment := domain.Comment{
		ID:          d.ID,
		User:        d.User.toDomain(),
		Description: d.Description,
		Created:     created,
		LikeCount:   d.LikeCount,
	}
	if d.Parent != nil {
		comment.Parent = d.Parent.ID
	}
	return comment, nil
}

func (c *Client) donationFromDTO(d donationDTO) (domain.Donation, error) {
	created, err := c.parseTime(d.Created)
	if err != nil {
		return domain.Donation{}, err
	}
	return domain.Donation{
		ID:          d.ID,
		User:        d.User.toDomain(),
		Target:      d.Target.toDomain(),
		Amount:      d.Amount,
		Description: d.Description,
		Created:     created,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
