package domain

type UserType string

const (
	UserTypePerson       UserType = "Person"
	UserTypeOrganization UserType = "Organization"
	UserTypeBot          UserType = "Bot"
)

type Person struct {
	ID               string   `json:"id"`
	Username         string   `json:"username"`
	FirstName        string   `json:"first_name"`
	Name             string   `json:"name"`
	UserType         UserType `json:"user_type,omitempty"`
	Verified         bool     `json:"verified,omitempty"`
	VerifiedOriginal bool     `json:"verified_original,omitempty"`
	Referral         string   `json:"referral,omitempty"`
}

// IsHuman reports whether the account belongs to a person rather than an
// organization or another bot. Platforms have sent the type in both cases.
func (p Person) IsHuman() bool {
	return p.UserType == UserTypePerson || p.UserType == "person"
}

// Node is the bot's own account as seen by the platform.
type Node struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	ActivityCount int    `json:"activity_count"`
}
