package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// RelationKind classifies a free-text relation label.
type RelationKind int

const (
	RelationOther RelationKind = iota
	RelationSpouse
	RelationChild
)

func (k RelationKind) String() string {
	switch k {
	case RelationSpouse:
		return "spouse"
	case RelationChild:
		return "child"
	default:
		return "other"
	}
}

// Relation is a member's relation label resolved once into a kind. Only
// "wife"/"husband" are spouses and only "son"/"daughter" are children,
// compared case-insensitively; every other label is kept verbatim as Other.
type Relation struct {
	Kind  RelationKind
	Label string
}

// ParseRelation resolves a raw label into a Relation.
func ParseRelation(label string) Relation {
	switch strings.ToLower(label) {
	case "wife", "husband":
		return Relation{Kind: RelationSpouse, Label: label}
	case "son", "daughter":
		return Relation{Kind: RelationChild, Label: label}
	default:
		return Relation{Kind: RelationOther, Label: label}
	}
}

// IsSpouse returns true for wife/husband labels
func (r Relation) IsSpouse() bool {
	return r.Kind == RelationSpouse
}

// IsChild returns true for son/daughter labels
func (r Relation) IsChild() bool {
	return r.Kind == RelationChild
}

func (r Relation) String() string {
	return r.Label
}

// MarshalJSON writes the label as entered.
func (r Relation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Label)
}

// UnmarshalJSON parses a label string.
func (r *Relation) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("relation must be a string: %w", err)
	}
	*r = ParseRelation(label)
	return nil
}

// Value implements driver.Valuer.
func (r Relation) Value() (driver.Value, error) {
	return r.Label, nil
}

// Scan implements sql.Scanner.
func (r *Relation) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*r = ParseRelation(v)
	case []byte:
		*r = ParseRelation(string(v))
	case nil:
		*r = ParseRelation("")
	default:
		return fmt.Errorf("cannot scan %T into Relation", src)
	}
	return nil
}
