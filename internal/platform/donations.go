package platform

import (
	"context"

	"github.com/set-night/ibisbots/internal/domain"
)

func (c *Client) ListDonations(ctx context.Context, f DonationFilter) ([]domain.Donation, error) {
	v := vars{}.str("user", f.User)
	if !f.CreatedAfter.IsZero() {
		v["createdAfter"] = formatTime(f.CreatedAfter)
	}
	if !f.CreatedBefore.IsZero() {
		v["createdBefore"] = formatTime(f.CreatedBefore)
	}

	nodes, err := listAll[donationDTO](ctx, c, "DonationList", queryDonationList, "donationList", v, 0)
	if err != nil {
		return nil, err
	}

	donations := make([]domain.Donation, 0, len(nodes))
	for _, n := range nodes {
		d, err := c.donationFromDTO(n)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, nil
}
