package models

import "time"

// RelationshipType labels an edge between two nodes
type RelationshipType string

const (
	RelationshipSpouse                RelationshipType = "spouse"
	RelationshipParentChild           RelationshipType = "parent-child"
	RelationshipChildParent           RelationshipType = "child-parent"
	RelationshipSibling               RelationshipType = "sibling"
	RelationshipGrandparentGrandchild RelationshipType = "grandparent-grandchild"
	RelationshipGrandchildGrandparent RelationshipType = "grandchild-grandparent"
	RelationshipUncleNephew           RelationshipType = "uncle-nephew"
	RelationshipAuntNiece             RelationshipType = "aunt-niece"
	RelationshipCousin                RelationshipType = "cousin"
	RelationshipOther                 RelationshipType = "other"
)

// Valid reports whether t is one of the known relationship types
func (t RelationshipType) Valid() bool {
	switch t {
	case RelationshipSpouse, RelationshipParentChild, RelationshipChildParent,
		RelationshipSibling, RelationshipGrandparentGrandchild,
		RelationshipGrandchildGrandparent, RelationshipUncleNephew,
		RelationshipAuntNiece, RelationshipCousin, RelationshipOther:
		return true
	}
	return false
}

// EdgeStyle is presentation-only styling of a connection line
type EdgeStyle struct {
	StrokeColor     string  `json:"strokeColor"`
	StrokeWidth     float64 `json:"strokeWidth"`
	StrokeDasharray string  `json:"strokeDasharray"`
	Animated        bool    `json:"animated"`
}

// DefaultEdgeStyle returns a solid grey line
func DefaultEdgeStyle() EdgeStyle {
	return EdgeStyle{StrokeColor: "#6b7280", StrokeWidth: 2}
}

// EdgeLabel is an optional caption drawn along an edge. Position runs from
// 0 (source) to 1 (target).
type EdgeLabel struct {
	Text     string  `json:"text"`
	Position float64 `json:"position"`
}

// Connection is an edge of the family-tree graph. At most one connection
// exists per (owner, source, target).
type Connection struct {
	ConnectionID     string           `json:"connectionId" db:"connection_id"`
	OwnerID          string           `json:"userId" db:"owner_id"`
	SourceNodeID     string           `json:"sourceNodeId" db:"source_node_id"`
	TargetNodeID     string           `json:"targetNodeId" db:"target_node_id"`
	RelationshipType RelationshipType `json:"relationshipType" db:"relationship_type"`
	Style            EdgeStyle        `json:"style" db:"style"`
	Label            *EdgeLabel       `json:"label,omitempty" db:"label"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}

// Touches returns true if the connection has nodeID as either endpoint
func (c *Connection) Touches(nodeID string) bool {
	return c.SourceNodeID == nodeID || c.TargetNodeID == nodeID
}
