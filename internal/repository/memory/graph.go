package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/models"
)

type graphRepository struct {
	s *Store
}

func cloneNode(n models.Node) models.Node {
	n.Photo = copyPhoto(n.Photo)
	if n.DateOfBirth != nil {
		t := *n.DateOfBirth
		n.DateOfBirth = &t
	}
	if n.DateOfDeath != nil {
		t := *n.DateOfDeath
		n.DateOfDeath = &t
	}
	return n
}

func cloneConnection(c models.Connection) models.Connection {
	if c.Label != nil {
		l := *c.Label
		c.Label = &l
	}
	return c
}

func (r *graphRepository) CreateNode(_ context.Context, node *models.Node) (*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := nodeKey{node.OwnerID, node.NodeID}
	if _, ok := r.s.nodes[key]; ok {
		return nil, fmt.Errorf("failed to create node: %w", duplicate("family_nodes_pkey"))
	}

	now := time.Now()
	node.CreatedAt = now
	node.UpdatedAt = now
	r.s.nodes[key] = cloneNode(*node)
	r.s.nodeAt[key] = r.s.next()

	out := cloneNode(*node)
	return &out, nil
}

func (r *graphRepository) GetNode(_ context.Context, ownerID, nodeID string) (*models.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.nodes[nodeKey{ownerID, nodeID}]
	if !ok {
		return nil, nil
	}
	out := cloneNode(n)
	return &out, nil
}

func (r *graphRepository) FindNodeByName(_ context.Context, ownerID, name string) (*models.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	needle := strings.ToLower(name)
	for _, n := range r.sortedNodes(ownerID) {
		if strings.Contains(strings.ToLower(n.Name), needle) {
			out := cloneNode(n)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *graphRepository) ListNodes(_ context.Context, ownerID string) ([]models.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	nodes := []models.Node{}
	for _, n := range r.sortedNodes(ownerID) {
		nodes = append(nodes, cloneNode(n))
	}
	return nodes, nil
}

// sortedNodes returns the owner's nodes in creation order. Callers hold the lock.
func (r *graphRepository) sortedNodes(ownerID string) []models.Node {
	var nodes []models.Node
	for k, n := range r.s.nodes {
		if k.owner == ownerID {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return r.s.nodeAt[nodeKey{ownerID, nodes[i].NodeID}] < r.s.nodeAt[nodeKey{ownerID, nodes[j].NodeID}]
	})
	return nodes
}

func (r *graphRepository) UpdateNode(_ context.Context, node *models.Node) (*models.Node, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := nodeKey{node.OwnerID, node.NodeID}
	stored, ok := r.s.nodes[key]
	if !ok {
		return nil, nil
	}

	node.CreatedAt = stored.CreatedAt
	node.UpdatedAt = time.Now()
	r.s.nodes[key] = cloneNode(*node)

	out := cloneNode(*node)
	return &out, nil
}

func (r *graphRepository) DeleteNode(_ context.Context, ownerID, nodeID string) (*models.Node, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := nodeKey{ownerID, nodeID}
	n, ok := r.s.nodes[key]
	if !ok {
		return nil, 0, nil
	}
	delete(r.s.nodes, key)
	delete(r.s.nodeAt, key)

	var edges int64
	for k, c := range r.s.connections {
		if k.owner == ownerID && c.Touches(nodeID) {
			r.removeConnection(k, c)
			edges++
		}
	}
	return &n, edges, nil
}

func (r *graphRepository) CreateConnection(_ context.Context, conn *models.Connection) (*models.Connection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	if err := r.checkConnection(conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}
	r.putConnection(*conn)

	out := cloneConnection(*conn)
	return &out, nil
}

func (r *graphRepository) checkConnection(conn *models.Connection) error {
	if _, ok := r.s.connections[nodeKey{conn.OwnerID, conn.ConnectionID}]; ok {
		return duplicate("family_connections_pkey")
	}
	if _, ok := r.s.pairs[pairKey{conn.OwnerID, conn.SourceNodeID, conn.TargetNodeID}]; ok {
		return duplicate("family_connections_owner_id_source_node_id_target_node_id_key")
	}
	return nil
}

func (r *graphRepository) putConnection(conn models.Connection) {
	key := nodeKey{conn.OwnerID, conn.ConnectionID}
	r.s.connections[key] = cloneConnection(conn)
	r.s.pairs[pairKey{conn.OwnerID, conn.SourceNodeID, conn.TargetNodeID}] = conn.ConnectionID
	r.s.connAt[key] = r.s.next()
}

func (r *graphRepository) removeConnection(key nodeKey, conn models.Connection) {
	delete(r.s.connections, key)
	delete(r.s.connAt, key)
	delete(r.s.pairs, pairKey{conn.OwnerID, conn.SourceNodeID, conn.TargetNodeID})
}

func (r *graphRepository) ListConnections(_ context.Context, ownerID string) ([]models.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	conns := []models.Connection{}
	for k, c := range r.s.connections {
		if k.owner == ownerID {
			conns = append(conns, cloneConnection(c))
		}
	}
	sort.Slice(conns, func(i, j int) bool {
		return r.s.connAt[nodeKey{ownerID, conns[i].ConnectionID}] < r.s.connAt[nodeKey{ownerID, conns[j].ConnectionID}]
	})
	return conns, nil
}

func (r *graphRepository) DeleteConnection(_ context.Context, ownerID, connectionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := nodeKey{ownerID, connectionID}
	c, ok := r.s.connections[key]
	if !ok {
		return false, nil
	}
	r.removeConnection(key, c)
	return true, nil
}

func (r *graphRepository) ApplySave(_ context.Context, ownerID string, plan familytree.SavePlan) error {
	if plan.Empty() {
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Validate inserts against the state after deletions before touching
	// anything, so a failing plan leaves the store unchanged.
	deleting := make(map[string]bool, len(plan.DeleteEdges))
	for _, id := range plan.DeleteEdges {
		deleting[id] = true
	}
	ids := make(map[string]bool)
	pairs := make(map[[2]string]bool)
	for k, c := range r.s.connections {
		if k.owner != ownerID || deleting[c.ConnectionID] {
			continue
		}
		ids[c.ConnectionID] = true
		pairs[[2]string{c.SourceNodeID, c.TargetNodeID}] = true
	}
	for _, c := range plan.InsertEdges {
		pair := [2]string{c.SourceNodeID, c.TargetNodeID}
		if ids[c.ConnectionID] || pairs[pair] {
			return fmt.Errorf("failed to create connection: %w", duplicate(c.ConnectionID))
		}
		ids[c.ConnectionID] = true
		pairs[pair] = true
	}

	now := time.Now()
	for _, p := range plan.Positions {
		key := nodeKey{ownerID, p.NodeID}
		n, ok := r.s.nodes[key]
		if !ok {
			continue
		}
		n.Position = p.Position
		n.UpdatedAt = now
		r.s.nodes[key] = n
	}

	for _, id := range plan.DeleteEdges {
		key := nodeKey{ownerID, id}
		if c, ok := r.s.connections[key]; ok {
			r.removeConnection(key, c)
		}
	}

	for _, c := range plan.InsertEdges {
		c.OwnerID = ownerID
		c.CreatedAt = now
		c.UpdatedAt = now
		r.putConnection(c)
	}
	return nil
}

func (r *graphRepository) Clear(_ context.Context, ownerID string) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var nodes, conns int64
	for k := range r.s.nodes {
		if k.owner == ownerID {
			delete(r.s.nodes, k)
			delete(r.s.nodeAt, k)
			nodes++
		}
	}
	for k, c := range r.s.connections {
		if k.owner == ownerID {
			r.removeConnection(k, c)
			conns++
		}
	}
	return nodes, conns, nil
}
