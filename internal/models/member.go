package models

import "time"

// Address of a family member
type Address struct {
	HouseNo string `json:"houseNo,omitempty"`
	Place   string `json:"place,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Member is an entry of the flat family model. ParentID refers to another
// member of the same owner and may dangle.
type Member struct {
	ID         string     `json:"id" db:"id"`
	OwnerID    string     `json:"userId" db:"owner_id"`
	Name       string     `json:"name" db:"name"`
	Relation   Relation   `json:"relation" db:"relation"`
	ParentID   *string    `json:"parentId" db:"parent_id"`
	Gender     string     `json:"gender" db:"gender"`
	DOB        *time.Time `json:"dob,omitempty" db:"dob"`
	Address    Address    `json:"address" db:"address"`
	Occupation string     `json:"occupation,omitempty" db:"occupation"`
	Photo      *PhotoRef  `json:"photo,omitempty" db:"photo"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// HasParent returns true if the member carries a parent reference
func (m *Member) HasParent() bool {
	return m.ParentID != nil && *m.ParentID != ""
}

// Gender values accepted for members and nodes
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// NormalizeGender maps unknown or empty values to "other".
func NormalizeGender(g string) string {
	switch g {
	case GenderMale, GenderFemale:
		return g
	default:
		return GenderOther
	}
}
