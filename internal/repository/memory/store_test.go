package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u, err := users.Create(ctx, &models.User{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	_, err = users.Create(ctx, &models.User{Name: "B", Email: "A@example.com"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	got, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	missing, err := users.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	paid, err := users.SetPaid(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
}

func TestMembersAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	members := New().Members()

	m, err := members.Create(ctx, &models.Member{OwnerID: "u1", Name: "Father", Relation: models.ParseRelation("Father")})
	require.NoError(t, err)

	other, err := members.GetByID(ctx, "u2", m.ID)
	require.NoError(t, err)
	assert.Nil(t, other)

	_, err = members.Create(ctx, &models.Member{OwnerID: "u1", Name: "Son", Relation: models.ParseRelation("son")})
	require.NoError(t, err)

	list, err := members.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Father", list[0].Name)

	n, err := members.DeleteMany(ctx, "u2", []string{m.ID})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = members.DeleteMany(ctx, "u1", []string{m.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestConnectionPairIsUnique(t *testing.T) {
	ctx := context.Background()
	graph := New().Graph()

	_, err := graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "c1", SourceNodeID: "a", TargetNodeID: "b"})
	require.NoError(t, err)

	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "c2", SourceNodeID: "a", TargetNodeID: "b"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	// reverse direction and other owners are distinct pairs
	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "c3", SourceNodeID: "b", TargetNodeID: "a"})
	require.NoError(t, err)
	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u2", ConnectionID: "c1", SourceNodeID: "a", TargetNodeID: "b"})
	require.NoError(t, err)
}

func TestDeleteNodeCascadesConnections(t *testing.T) {
	ctx := context.Background()
	graph := New().Graph()

	for _, id := range []string{"a", "b", "c"} {
		_, err := graph.CreateNode(ctx, &models.Node{OwnerID: "u1", NodeID: id, Name: id})
		require.NoError(t, err)
	}
	_, err := graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "ab", SourceNodeID: "a", TargetNodeID: "b"})
	require.NoError(t, err)
	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "ca", SourceNodeID: "c", TargetNodeID: "a"})
	require.NoError(t, err)
	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "bc", SourceNodeID: "b", TargetNodeID: "c"})
	require.NoError(t, err)

	node, edges, err := graph.DeleteNode(ctx, "u1", "a")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, int64(2), edges)

	conns, err := graph.ListConnections(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "bc", conns[0].ConnectionID)

	// the freed pair can be reused
	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "ab2", SourceNodeID: "a", TargetNodeID: "b"})
	require.NoError(t, err)
}

func TestApplySaveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	graph := New().Graph()

	_, err := graph.CreateNode(ctx, &models.Node{OwnerID: "u1", NodeID: "a"})
	require.NoError(t, err)
	_, err = graph.CreateConnection(ctx, &models.Connection{OwnerID: "u1", ConnectionID: "c1", SourceNodeID: "a", TargetNodeID: "b"})
	require.NoError(t, err)

	bad := familytree.SavePlan{
		Positions:   []familytree.NodePosition{{NodeID: "a", Position: models.Position{X: 5, Y: 6}}},
		InsertEdges: []models.Connection{{ConnectionID: "c2", SourceNodeID: "a", TargetNodeID: "b"}},
	}
	err = graph.ApplySave(ctx, "u1", bad)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	n, err := graph.GetNode(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, models.Position{}, n.Position)

	good := familytree.SavePlan{
		Positions:   []familytree.NodePosition{{NodeID: "a", Position: models.Position{X: 5, Y: 6}}, {NodeID: "ghost"}},
		DeleteEdges: []string{"c1"},
		InsertEdges: []models.Connection{{ConnectionID: "c2", SourceNodeID: "a", TargetNodeID: "b"}},
	}
	require.NoError(t, graph.ApplySave(ctx, "u1", good))

	n, err = graph.GetNode(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, models.Position{X: 5, Y: 6}, n.Position)

	conns, err := graph.ListConnections(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "c2", conns[0].ConnectionID)
	assert.Equal(t, "u1", conns[0].OwnerID)
}

func TestFindNodeByNameIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	graph := New().Graph()

	_, err := graph.CreateNode(ctx, &models.Node{OwnerID: "u1", NodeID: "n1", Name: "Grandma Rose"})
	require.NoError(t, err)

	n, err := graph.FindNodeByName(ctx, "u1", "rose")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "n1", n.NodeID)

	n, err = graph.FindNodeByName(ctx, "u2", "rose")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestPaymentsPendingSweepWindow(t *testing.T) {
	ctx := context.Background()
	payments := New().Payments()

	_, err := payments.Create(ctx, &models.Payment{UserID: "u1", Amount: 100, Currency: "inr", Method: models.PaymentMethodCard, ProviderIntentID: "pi_1"})
	require.NoError(t, err)
	_, err = payments.Create(ctx, &models.Payment{UserID: "u1", Amount: 100, Currency: "inr", Method: models.PaymentMethodCard, ProviderIntentID: "pi_1"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	pending, err := payments.ListPending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	pending, err = payments.ListPending(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	p, err := payments.UpdateStatus(ctx, "pi_1", models.PaymentStatusSucceeded)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, p.Status)

	pending, err = payments.ListPending(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
