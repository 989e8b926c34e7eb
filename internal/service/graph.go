package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/imagehost"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

// Canvas is the caller's complete node/connection graph.
type Canvas struct {
	Nodes       []models.Node
	Connections []models.Connection
}

// NodeInput is a node create or edit. With IsEditing set, NodeID must name
// an existing node and only the non-nil fields of Fields are applied.
// Otherwise a node is created, with NodeID synthesized when empty.
// X and Y place a new node per axis when Fields.Position is nil; a missing
// axis gets a random value. Edits ignore them.
type NodeInput struct {
	NodeID    string
	IsEditing bool
	Fields    models.NodeUpdate
	X         *float64
	Y         *float64
}

// ConnectionInput is a new connection. ConnectionID is synthesized when
// empty and Style defaults to a plain line.
type ConnectionInput struct {
	ConnectionID     string
	SourceNodeID     string
	TargetNodeID     string
	RelationshipType models.RelationshipType
	Style            *models.EdgeStyle
	Label            *models.EdgeLabel
}

// SaveResult summarizes a canvas save.
type SaveResult struct {
	Positions int `json:"positions"`
	Deleted   int `json:"deletedConnections"`
	Inserted  int `json:"insertedConnections"`
	Skipped   int `json:"skippedConnections"`
}

var treeUpload = imagehost.UploadOptions{Folder: imagehost.FolderTree, FaceThumbnail: true}

// Canvas loads every node and connection of the owner in creation order.
func (s *Service) Canvas(ctx context.Context, ownerID string) (*Canvas, error) {
	nodes, err := s.Graph.ListNodes(ctx, ownerID)
	if err != nil {
		return nil, internalError("failed to load family tree", err)
	}
	conns, err := s.Graph.ListConnections(ctx, ownerID)
	if err != nil {
		return nil, internalError("failed to load family tree", err)
	}
	return &Canvas{Nodes: nodes, Connections: conns}, nil
}

// UpsertNode creates or edits a node. The photo, when attached, is
// uploaded before anything is written and a failed upload aborts the
// operation. It reports whether a node was created.
func (s *Service) UpsertNode(ctx context.Context, ownerID string, in NodeInput, photo *Upload) (*models.Node, bool, error) {
	if in.IsEditing {
		node, err := s.editNode(ctx, ownerID, in, photo)
		return node, false, err
	}
	node, err := s.createNode(ctx, ownerID, in, photo)
	return node, err == nil, err
}

func (s *Service) editNode(ctx context.Context, ownerID string, in NodeInput, photo *Upload) (*models.Node, error) {
	if in.NodeID == "" {
		return nil, validationError("nodeId is required when editing")
	}
	if in.Fields.Name != nil && blank(in.Fields.Name) {
		return nil, validationError("name cannot be empty")
	}
	node, err := s.Graph.GetNode(ctx, ownerID, in.NodeID)
	if err != nil {
		return nil, internalError("failed to save family member", err)
	}
	if node == nil {
		return nil, notFoundError("family member not found")
	}

	ref, err := s.upload(ctx, photo, treeUpload)
	if err != nil {
		return nil, err
	}

	old := node.Photo
	fields := in.Fields
	fields.Photo = ref
	fields.Apply(node)

	updated, err := s.Graph.UpdateNode(ctx, node)
	if err != nil {
		s.releasePhotos(ctx, ref)
		return nil, internalError("failed to save family member", err)
	}
	if updated == nil {
		s.releasePhotos(ctx, ref)
		return nil, notFoundError("family member not found")
	}
	if ref != nil {
		s.releasePhotos(ctx, old)
	}
	return updated, nil
}

func (s *Service) createNode(ctx context.Context, ownerID string, in NodeInput, photo *Upload) (*models.Node, error) {
	if blank(in.Fields.Name) {
		return nil, validationError("name is required")
	}

	nodeID := in.NodeID
	if nodeID == "" {
		id, err := familytree.NewNodeID()
		if err != nil {
			return nil, internalError("failed to save family member", err)
		}
		nodeID = id
	}

	ref, err := s.upload(ctx, photo, treeUpload)
	if err != nil {
		return nil, err
	}

	node := &models.Node{
		NodeID:  nodeID,
		OwnerID: ownerID,
		Gender:  models.GenderOther,
		Style:   models.DefaultNodeStyle(),
		Position: models.Position{
			X: rand.Float64() * 400,
			Y: rand.Float64() * 300,
		},
	}
	if in.X != nil {
		node.Position.X = *in.X
	}
	if in.Y != nil {
		node.Position.Y = *in.Y
	}
	fields := in.Fields
	fields.Photo = ref
	fields.Apply(node)

	created, err := s.Graph.CreateNode(ctx, node)
	if err != nil {
		s.releasePhotos(ctx, ref)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("family member with this id already exists", err)
		}
		return nil, internalError("failed to save family member", err)
	}
	return created, nil
}

// DeleteNode removes a node and every connection touching it, then releases
// its hosted photo best-effort. It returns the deleted node and the number
// of connections removed with it.
func (s *Service) DeleteNode(ctx context.Context, ownerID, nodeID string) (*models.Node, int64, error) {
	node, edges, err := s.Graph.DeleteNode(ctx, ownerID, nodeID)
	if err != nil {
		return nil, 0, internalError("failed to delete family member", err)
	}
	if node == nil {
		return nil, 0, notFoundError("family member not found")
	}

	s.releasePhotos(ctx, node.Photo)

	s.logger.WithFields(logrus.Fields{
		"owner_id":    ownerID,
		"node_id":     nodeID,
		"connections": edges,
	}).Info("deleted family tree node")
	return node, edges, nil
}

// DeleteNodeByName removes the first node, in creation order, whose name
// contains name case-insensitively. It cascades like DeleteNode.
func (s *Service) DeleteNodeByName(ctx context.Context, ownerID, name string) (*models.Node, int64, error) {
	if strings.TrimSpace(name) == "" {
		return nil, 0, validationError("name is required")
	}
	node, err := s.Graph.FindNodeByName(ctx, ownerID, name)
	if err != nil {
		return nil, 0, internalError("failed to delete member", err)
	}
	if node == nil {
		return nil, 0, notFoundError("member \"" + name + "\" not found")
	}
	return s.DeleteNode(ctx, ownerID, node.NodeID)
}

// CreateConnection adds a connection. A taken id or an existing connection
// with the same source and target is a conflict.
func (s *Service) CreateConnection(ctx context.Context, ownerID string, in ConnectionInput) (*models.Connection, error) {
	if in.SourceNodeID == "" || in.TargetNodeID == "" {
		return nil, validationError("sourceNodeId and targetNodeId are required")
	}
	if !in.RelationshipType.Valid() {
		return nil, validationError("invalid relationship type")
	}

	connID := in.ConnectionID
	if connID == "" {
		id, err := familytree.NewConnectionID()
		if err != nil {
			return nil, internalError("failed to create connection", err)
		}
		connID = id
	}

	conn := &models.Connection{
		ConnectionID:     connID,
		OwnerID:          ownerID,
		SourceNodeID:     in.SourceNodeID,
		TargetNodeID:     in.TargetNodeID,
		RelationshipType: in.RelationshipType,
		Style:            models.DefaultEdgeStyle(),
		Label:            in.Label,
	}
	if in.Style != nil {
		conn.Style = *in.Style
	}

	created, err := s.Graph.CreateConnection(ctx, conn)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("connection already exists between these members", err)
		}
		return nil, internalError("failed to create connection", err)
	}
	return created, nil
}

// DeleteConnection removes one of the caller's connections.
func (s *Service) DeleteConnection(ctx context.Context, ownerID, connectionID string) error {
	ok, err := s.Graph.DeleteConnection(ctx, ownerID, connectionID)
	if err != nil {
		return internalError("failed to delete connection", err)
	}
	if !ok {
		return notFoundError("connection not found")
	}
	return nil
}

// SaveCanvas stores the positions and edge set reported by the canvas in
// one atomic write. Stored connections missing from edges are deleted and
// new ones inserted; an empty edge list leaves stored connections alone.
// Saving the same input twice converges to the same state.
func (s *Service) SaveCanvas(ctx context.Context, ownerID string, positions []familytree.NodePosition, edges []familytree.EdgeInput) (*SaveResult, error) {
	var existing []models.Connection
	if len(edges) > 0 {
		conns, err := s.Graph.ListConnections(ctx, ownerID)
		if err != nil {
			return nil, internalError("failed to save family tree", err)
		}
		existing = conns
	}

	plan := familytree.PlanSave(ownerID, positions, existing, edges)
	if err := s.Graph.ApplySave(ctx, ownerID, plan); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("family tree changed during save, retry", err)
		}
		return nil, internalError("failed to save family tree", err)
	}

	result := &SaveResult{
		Positions: len(plan.Positions),
		Deleted:   len(plan.DeleteEdges),
		Inserted:  len(plan.InsertEdges),
		Skipped:   plan.Skipped,
	}
	if plan.Skipped > 0 {
		s.logger.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"skipped":  plan.Skipped,
		}).Warn("skipped duplicate connections on save")
	}
	return result, nil
}

// ClearCanvas deletes every node and connection of the owner. Hosted photos
// of the removed nodes are not released.
func (s *Service) ClearCanvas(ctx context.Context, ownerID string) (int64, int64, error) {
	nodes, conns, err := s.Graph.Clear(ctx, ownerID)
	if err != nil {
		return 0, 0, internalError("failed to clear family tree data", err)
	}
	s.logger.WithFields(logrus.Fields{
		"owner_id":    ownerID,
		"nodes":       nodes,
		"connections": conns,
	}).Warn("cleared family tree")
	return nodes, conns, nil
}
