package api

import (
	"net/http"
	"time"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/service"
)

// ---------------------------------------------------------------------------
// Family tree canvas
// ---------------------------------------------------------------------------

// The canvas client renders nodes and edges in the React Flow shape.

type flowNodeData struct {
	Name        string           `json:"name"`
	DateOfBirth *time.Time       `json:"dateOfBirth"`
	DateOfDeath *time.Time       `json:"dateOfDeath"`
	Gender      string           `json:"gender"`
	Photo       *models.PhotoRef `json:"photo"`
	Occupation  string           `json:"occupation"`
	Location    string           `json:"location"`
	Notes       string           `json:"notes"`
}

type flowNode struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Position models.Position  `json:"position"`
	Data     flowNodeData     `json:"data"`
	Style    models.NodeStyle `json:"style"`
}

type flowEdgeData struct {
	RelationshipType models.RelationshipType `json:"relationshipType"`
}

type flowEdge struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	Target       string            `json:"target"`
	Type         string            `json:"type"`
	Label        string            `json:"label"`
	LabelStyle   map[string]any    `json:"labelStyle"`
	LabelBgStyle map[string]any    `json:"labelBgStyle"`
	Style        models.EdgeStyle  `json:"style"`
	Caption      *models.EdgeLabel `json:"caption,omitempty"`
	Data         flowEdgeData      `json:"data"`
}

type flowGraph struct {
	Nodes []flowNode `json:"nodes"`
	Edges []flowEdge `json:"edges"`
}

func toFlowNode(n *models.Node) flowNode {
	return flowNode{
		ID:       n.NodeID,
		Type:     "familyMember",
		Position: n.Position,
		Data: flowNodeData{
			Name:        n.Name,
			DateOfBirth: n.DateOfBirth,
			DateOfDeath: n.DateOfDeath,
			Gender:      n.Gender,
			Photo:       n.Photo,
			Occupation:  n.Occupation,
			Location:    n.Location,
			Notes:       n.Notes,
		},
		Style: n.Style,
	}
}

func toFlowEdge(c *models.Connection) flowEdge {
	return flowEdge{
		ID:           c.ConnectionID,
		Source:       c.SourceNodeID,
		Target:       c.TargetNodeID,
		Type:         "smoothstep",
		Label:        string(c.RelationshipType),
		LabelStyle:   map[string]any{"fontSize": 12, "fontWeight": 600},
		LabelBgStyle: map[string]any{"fill": "#ffffff", "fillOpacity": 0.8},
		Style:        c.Style,
		Caption:      c.Label,
		Data:         flowEdgeData{RelationshipType: c.RelationshipType},
	}
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	canvas, err := s.svc.Canvas(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	graph := flowGraph{
		Nodes: make([]flowNode, 0, len(canvas.Nodes)),
		Edges: make([]flowEdge, 0, len(canvas.Connections)),
	}
	for i := range canvas.Nodes {
		graph.Nodes = append(graph.Nodes, toFlowNode(&canvas.Nodes[i]))
	}
	for i := range canvas.Connections {
		graph.Edges = append(graph.Edges, toFlowEdge(&canvas.Connections[i]))
	}
	s.respondJSON(w, http.StatusOK, graph)
}

// nodeInput reads a node create or edit from the parsed form. An edit
// moves the node only when both coordinates are present; a create takes
// each coordinate on its own. Non-finite coordinates count as absent.
func nodeInput(r *http.Request) (service.NodeInput, error) {
	in := service.NodeInput{
		NodeID:    r.PostForm.Get("nodeId"),
		IsEditing: r.PostForm.Get("isEditing") == "true",
		Fields: models.NodeUpdate{
			Name:       formString(r, "name"),
			Gender:     formString(r, "gender"),
			Occupation: formString(r, "occupation"),
			Location:   formString(r, "location"),
			Notes:      formString(r, "notes"),
		},
	}

	var err error
	if in.Fields.DateOfBirth, err = formDate(r, "dateOfBirth"); err != nil {
		return in, err
	}
	if in.Fields.DateOfDeath, err = formDate(r, "dateOfDeath"); err != nil {
		return in, err
	}

	x, okX := formFloat(r, "positionX")
	y, okY := formFloat(r, "positionY")
	if okX && okY {
		in.Fields.Position = &models.Position{X: x, Y: y}
	}
	if okX {
		in.X = &x
	}
	if okY {
		in.Y = &y
	}
	return in, nil
}

func (s *Server) handleUpsertNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}
	if !s.parseForm(w, r) {
		return
	}
	in, err := nodeInput(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "dates must be valid")
		return
	}
	photo, closePhoto, ok := s.formPhoto(w, r)
	if !ok {
		return
	}
	defer closePhoto()

	node, created, err := s.svc.UpsertNode(r.Context(), userID, in, photo)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, toFlowNode(node))
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	node, edges, err := s.svc.DeleteNode(r.Context(), userID, r.PathValue("nodeId"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":            "Family member completely deleted",
		"deletedMember":      node.Name,
		"deletedConnections": edges,
		"photoDeleted":       node.Photo != nil && node.Photo.PublicID != "",
	})
}

func (s *Server) handleDeleteNodeByName(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	node, edges, err := s.svc.DeleteNodeByName(r.Context(), userID, r.PathValue("name"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":            "Successfully deleted " + node.Name,
		"deletedMember":      node.Name,
		"deletedConnections": edges,
	})
}

type createConnectionRequest struct {
	ConnectionID     string                  `json:"connectionId"`
	SourceNodeID     string                  `json:"sourceNodeId"`
	TargetNodeID     string                  `json:"targetNodeId"`
	RelationshipType models.RelationshipType `json:"relationshipType"`
	Style            *models.EdgeStyle       `json:"style"`
	Label            *models.EdgeLabel       `json:"label"`
}

func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req createConnectionRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	conn, err := s.svc.CreateConnection(r.Context(), userID, service.ConnectionInput{
		ConnectionID:     req.ConnectionID,
		SourceNodeID:     req.SourceNodeID,
		TargetNodeID:     req.TargetNodeID,
		RelationshipType: req.RelationshipType,
		Style:            req.Style,
		Label:            req.Label,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toFlowEdge(conn))
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteConnection(r.Context(), userID, r.PathValue("connectionId")); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Connection deleted successfully"})
}

type saveCanvasRequest struct {
	Nodes []struct {
		ID       string          `json:"id"`
		Position models.Position `json:"position"`
	} `json:"nodes"`
	Edges []struct {
		ID     string `json:"id"`
		Source string `json:"source"`
		Target string `json:"target"`
		Data   struct {
			RelationshipType models.RelationshipType `json:"relationshipType"`
		} `json:"data"`
	} `json:"edges"`
}

type saveCanvasResponse struct {
	Message string `json:"message"`
	*service.SaveResult
}

func (s *Server) handleSaveCanvas(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	var req saveCanvasRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	positions := make([]familytree.NodePosition, 0, len(req.Nodes))
	for _, n := range req.Nodes {
		positions = append(positions, familytree.NodePosition{NodeID: n.ID, Position: n.Position})
	}
	edges := make([]familytree.EdgeInput, 0, len(req.Edges))
	for _, e := range req.Edges {
		edges = append(edges, familytree.EdgeInput{
			ID:               e.ID,
			Source:           e.Source,
			Target:           e.Target,
			RelationshipType: e.Data.RelationshipType,
		})
	}

	result, err := s.svc.SaveCanvas(r.Context(), userID, positions, edges)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saveCanvasResponse{
		Message:    "Family tree saved successfully",
		SaveResult: result,
	})
}

func (s *Server) handleClearCanvas(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	nodes, conns, err := s.svc.ClearCanvas(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":            "All family tree data cleared successfully",
		"deletedNodes":       nodes,
		"deletedConnections": conns,
	})
}
