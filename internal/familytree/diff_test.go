package familytree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/familyalbum/internal/models"
)

func conn(id, src, dst string) models.Connection {
	return models.Connection{ConnectionID: id, OwnerID: "u1", SourceNodeID: src, TargetNodeID: dst, RelationshipType: models.RelationshipSibling}
}

// apply mimics the store: deletes, then inserts.
func apply(existing []models.Connection, plan SavePlan) []models.Connection {
	del := map[string]bool{}
	for _, id := range plan.DeleteEdges {
		del[id] = true
	}
	var out []models.Connection
	for _, c := range existing {
		if !del[c.ConnectionID] {
			out = append(out, c)
		}
	}
	return append(out, plan.InsertEdges...)
}

func TestPlanSaveDiff(t *testing.T) {
	existing := []models.Connection{conn("e1", "a", "b"), conn("e2", "b", "c")}
	edges := []EdgeInput{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e3", Source: "c", Target: "d", RelationshipType: models.RelationshipSpouse},
		{ID: "e4", Source: "d", Target: "e"},
	}

	plan := PlanSave("u1", nil, existing, edges)

	assert.Equal(t, []string{"e2"}, plan.DeleteEdges)
	require.Len(t, plan.InsertEdges, 2)
	assert.Equal(t, "e3", plan.InsertEdges[0].ConnectionID)
	assert.Equal(t, models.RelationshipSpouse, plan.InsertEdges[0].RelationshipType)
	assert.Equal(t, models.RelationshipOther, plan.InsertEdges[1].RelationshipType)
	assert.Equal(t, "u1", plan.InsertEdges[1].OwnerID)
	assert.Zero(t, plan.Skipped)
}

func TestPlanSaveIsIdempotent(t *testing.T) {
	existing := []models.Connection{conn("e1", "a", "b"), conn("e2", "b", "c")}
	edges := []EdgeInput{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e3", Source: "c", Target: "d"},
		{ID: "e3", Source: "c", Target: "d"},
	}

	state := apply(existing, PlanSave("u1", nil, existing, edges))
	second := PlanSave("u1", nil, state, edges)

	assert.Empty(t, second.DeleteEdges)
	assert.Empty(t, second.InsertEdges)
	assert.Len(t, apply(state, second), 2)
}

func TestPlanSaveSkipsDuplicatePairs(t *testing.T) {
	existing := []models.Connection{conn("e1", "a", "b")}
	edges := []EdgeInput{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "dup", Source: "a", Target: "b"},
		{ID: "", Source: "x", Target: "y"},
	}

	plan := PlanSave("u1", nil, existing, edges)
	assert.Empty(t, plan.InsertEdges)
	assert.Equal(t, 2, plan.Skipped)
}

func TestPlanSaveFreedPairCanBeReused(t *testing.T) {
	existing := []models.Connection{conn("old", "a", "b")}
	edges := []EdgeInput{{ID: "new", Source: "a", Target: "b"}}

	plan := PlanSave("u1", nil, existing, edges)
	assert.Equal(t, []string{"old"}, plan.DeleteEdges)
	require.Len(t, plan.InsertEdges, 1)
	assert.Equal(t, "new", plan.InsertEdges[0].ConnectionID)
}

func TestPlanSaveEmptyEdgesLeavesStoredEdges(t *testing.T) {
	existing := []models.Connection{conn("e1", "a", "b")}
	positions := []NodePosition{{NodeID: "a", Position: models.Position{X: 1, Y: 2}}}

	plan := PlanSave("u1", positions, existing, nil)
	assert.Empty(t, plan.DeleteEdges)
	assert.Empty(t, plan.InsertEdges)
	assert.Equal(t, positions, plan.Positions)
	assert.False(t, plan.Empty())
}

func TestNewIDs(t *testing.T) {
	n1, err := NewNodeID()
	require.NoError(t, err)
	n2, err := NewNodeID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n1, "node-"))
	assert.NotEqual(t, n1, n2)

	c, err := NewConnectionID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c, "connection-"))
}
