package models

import "time"

// Position is a canvas coordinate pair
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeStyle is presentation-only styling of a graph node
type NodeStyle struct {
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
	TextColor       string `json:"textColor"`
}

// DefaultNodeStyle returns the styling applied to new nodes.
func DefaultNodeStyle() NodeStyle {
	return NodeStyle{
		BackgroundColor: "#ffffff",
		BorderColor:     "#e5e7eb",
		TextColor:       "#374151",
	}
}

// Node is a person on the family-tree canvas. NodeID is client visible and
// unique per owner.
type Node struct {
	NodeID      string     `json:"nodeId" db:"node_id"`
	OwnerID     string     `json:"userId" db:"owner_id"`
	Name        string     `json:"name" db:"name"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	DateOfDeath *time.Time `json:"dateOfDeath,omitempty" db:"date_of_death"`
	Gender      string     `json:"gender" db:"gender"`
	Photo       *PhotoRef  `json:"photo,omitempty" db:"photo"`
	Occupation  string     `json:"occupation,omitempty" db:"occupation"`
	Location    string     `json:"location,omitempty" db:"location"`
	Notes       string     `json:"notes,omitempty" db:"notes"`
	Position    Position   `json:"position" db:"position"`
	Style       NodeStyle  `json:"style" db:"style"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// NodeUpdate carries the fields of a partial node update. Nil pointers leave
// the stored value untouched.
type NodeUpdate struct {
	Name        *string
	Gender      *string
	Occupation  *string
	Location    *string
	Notes       *string
	DateOfBirth *time.Time
	DateOfDeath *time.Time
	Position    *Position
	Photo       *PhotoRef
}

// Apply copies the set fields onto n.
func (u NodeUpdate) Apply(n *Node) {
	if u.Name != nil {
		n.Name = *u.Name
	}
	if u.Gender != nil {
		n.Gender = NormalizeGender(*u.Gender)
	}
	if u.Occupation != nil {
		n.Occupation = *u.Occupation
	}
	if u.Location != nil {
		n.Location = *u.Location
	}
	if u.Notes != nil {
		n.Notes = *u.Notes
	}
	if u.DateOfBirth != nil {
		n.DateOfBirth = u.DateOfBirth
	}
	if u.DateOfDeath != nil {
		n.DateOfDeath = u.DateOfDeath
	}
	if u.Position != nil {
		n.Position = *u.Position
	}
	if u.Photo != nil {
		n.Photo = u.Photo
	}
}
