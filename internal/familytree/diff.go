package familytree

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Kerhoff/familyalbum/internal/models"
)

// NodePosition is a node id with the position the canvas reports for it.
type NodePosition struct {
	NodeID   string
	Position models.Position
}

// EdgeInput is an edge as the canvas reports it on save.
type EdgeInput struct {
	ID               string
	Source           string
	Target           string
	RelationshipType models.RelationshipType
}

// SavePlan is the full set of store writes for one canvas save.
type SavePlan struct {
	Positions   []NodePosition
	DeleteEdges []string
	InsertEdges []models.Connection
	// Skipped counts incoming edges dropped because their id or their
	// (source, target) pair was already taken.
	Skipped int
}

// Empty reports whether the plan writes nothing
func (p SavePlan) Empty() bool {
	return len(p.Positions) == 0 && len(p.DeleteEdges) == 0 && len(p.InsertEdges) == 0
}

// PlanSave compares the stored edges with the incoming ones. Stored ids
// missing from the input are deleted and incoming ids missing from storage
// are inserted, with an unknown or empty relationship type stored as
// "other". When edges is empty the stored edges are left alone.
//
// Running PlanSave again against the state produced by applying its plan
// yields a plan with no edge writes.
func PlanSave(ownerID string, positions []NodePosition, existing []models.Connection, edges []EdgeInput) SavePlan {
	plan := SavePlan{Positions: positions}
	if len(edges) == 0 {
		return plan
	}

	incoming := make(map[string]bool, len(edges))
	for _, e := range edges {
		incoming[e.ID] = true
	}

	storedIDs := make(map[string]bool, len(existing))
	pairs := make(map[[2]string]bool, len(existing))
	for _, c := range existing {
		storedIDs[c.ConnectionID] = true
		if !incoming[c.ConnectionID] {
			plan.DeleteEdges = append(plan.DeleteEdges, c.ConnectionID)
			continue
		}
		pairs[[2]string{c.SourceNodeID, c.TargetNodeID}] = true
	}

	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if storedIDs[e.ID] {
			continue
		}
		pair := [2]string{e.Source, e.Target}
		if e.ID == "" || seen[e.ID] || pairs[pair] {
			plan.Skipped++
			continue
		}
		seen[e.ID] = true
		pairs[pair] = true

		rt := e.RelationshipType
		if !rt.Valid() {
			rt = models.RelationshipOther
		}
		plan.InsertEdges = append(plan.InsertEdges, models.Connection{
			ConnectionID:     e.ID,
			OwnerID:          ownerID,
			SourceNodeID:     e.Source,
			TargetNodeID:     e.Target,
			RelationshipType: rt,
			Style:            models.DefaultEdgeStyle(),
		})
	}

	return plan
}

// NewNodeID synthesizes a node id for a create without one.
func NewNodeID() (string, error) {
	return newPrefixedID("node")
}

// NewConnectionID synthesizes a connection id for a create without one.
func NewConnectionID() (string, error) {
	return newPrefixedID("connection")
}

func newPrefixedID(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s id: %w", prefix, err)
	}
	return prefix + "-" + id, nil
}
