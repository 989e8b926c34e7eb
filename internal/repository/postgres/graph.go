package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

type graphRepository struct {
	db *sql.DB
}

// NewGraphRepository creates a new family-tree canvas repository
func NewGraphRepository(db *sql.DB) repository.GraphRepository {
	return &graphRepository{db: db}
}

const nodeColumns = `owner_id, node_id, name, date_of_birth, date_of_death, gender, photo_url, photo_public_id,
	occupation, location, notes, position_x, position_y, style, created_at, updated_at`

const connectionColumns = `owner_id, connection_id, source_node_id, target_node_id, relationship_type, style, label, created_at, updated_at`

func scanNode(row interface{ Scan(...any) error }) (*models.Node, error) {
	var (
		n        models.Node
		born     sql.NullTime
		died     sql.NullTime
		photoURL sql.NullString
		photoPub sql.NullString
		style    []byte
	)
	if err := row.Scan(
		&n.OwnerID,
		&n.NodeID,
		&n.Name,
		&born,
		&died,
		&n.Gender,
		&photoURL,
		&photoPub,
		&n.Occupation,
		&n.Location,
		&n.Notes,
		&n.Position.X,
		&n.Position.Y,
		&style,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if born.Valid {
		t := born.Time
		n.DateOfBirth = &t
	}
	if died.Valid {
		t := died.Time
		n.DateOfDeath = &t
	}
	n.Photo = photoFromColumns(photoURL, photoPub)
	if err := fromJSON(style, &n.Style); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanConnection(row interface{ Scan(...any) error }) (*models.Connection, error) {
	var (
		c     models.Connection
		style []byte
		label []byte
	)
	if err := row.Scan(
		&c.OwnerID,
		&c.ConnectionID,
		&c.SourceNodeID,
		&c.TargetNodeID,
		&c.RelationshipType,
		&style,
		&label,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := fromJSON(style, &c.Style); err != nil {
		return nil, err
	}
	if len(label) > 0 {
		c.Label = &models.EdgeLabel{}
		if err := fromJSON(label, c.Label); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *graphRepository) CreateNode(ctx context.Context, node *models.Node) (*models.Node, error) {
	query := `
		INSERT INTO family_nodes (owner_id, node_id, name, date_of_birth, date_of_death, gender, photo_url, photo_public_id,
			occupation, location, notes, position_x, position_y, style, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at`

	now := time.Now()
	node.CreatedAt = now
	node.UpdatedAt = now

	style, err := toJSON(node.Style)
	if err != nil {
		return nil, err
	}
	photoURL, photoPub := photoColumns(node.Photo)

	err = r.db.QueryRowContext(ctx, query,
		node.OwnerID,
		node.NodeID,
		node.Name,
		node.DateOfBirth,
		node.DateOfDeath,
		node.Gender,
		photoURL,
		photoPub,
		node.Occupation,
		node.Location,
		node.Notes,
		node.Position.X,
		node.Position.Y,
		style,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create node: %w", translate(err))
	}

	return node, nil
}

func (r *graphRepository) GetNode(ctx context.Context, ownerID, nodeID string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM family_nodes WHERE owner_id = $1 AND node_id = $2`

	node, err := scanNode(r.db.QueryRowContext(ctx, query, ownerID, nodeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return node, nil
}

func (r *graphRepository) FindNodeByName(ctx context.Context, ownerID, name string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + `
		FROM family_nodes
		WHERE owner_id = $1 AND strpos(lower(name), lower($2)) > 0
		ORDER BY created_at ASC
		LIMIT 1`

	node, err := scanNode(r.db.QueryRowContext(ctx, query, ownerID, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find node by name: %w", err)
	}

	return node, nil
}

const listNodesQuery = `SELECT ` + nodeColumns + ` FROM family_nodes WHERE owner_id = $1 ORDER BY created_at ASC, node_id ASC`

func (r *graphRepository) ListNodes(ctx context.Context, ownerID string) ([]models.Node, error) {
	rows, err := r.db.QueryContext(ctx, listNodesQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}

	return nodes, rows.Err()
}

func (r *graphRepository) UpdateNode(ctx context.Context, node *models.Node) (*models.Node, error) {
	query := `
		UPDATE family_nodes
		SET name = $3, date_of_birth = $4, date_of_death = $5, gender = $6, photo_url = $7, photo_public_id = $8,
		    occupation = $9, location = $10, notes = $11, position_x = $12, position_y = $13, style = $14, updated_at = $15
		WHERE owner_id = $1 AND node_id = $2
		RETURNING updated_at`

	node.UpdatedAt = time.Now()

	style, err := toJSON(node.Style)
	if err != nil {
		return nil, err
	}
	photoURL, photoPub := photoColumns(node.Photo)

	err = r.db.QueryRowContext(ctx, query,
		node.OwnerID,
		node.NodeID,
		node.Name,
		node.DateOfBirth,
		node.DateOfDeath,
		node.Gender,
		photoURL,
		photoPub,
		node.Occupation,
		node.Location,
		node.Notes,
		node.Position.X,
		node.Position.Y,
		style,
		node.UpdatedAt,
	).Scan(&node.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update node %s: %w", node.NodeID, err)
	}

	return node, nil
}

func (r *graphRepository) DeleteNode(ctx context.Context, ownerID, nodeID string) (*models.Node, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `DELETE FROM family_nodes WHERE owner_id = $1 AND node_id = $2 RETURNING ` + nodeColumns
	node, err := scanNode(tx.QueryRowContext(ctx, query, ownerID, nodeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to delete node: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM family_connections WHERE owner_id = $1 AND (source_node_id = $2 OR target_node_id = $2)`,
		ownerID, nodeID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to delete connections of node %s: %w", nodeID, err)
	}
	edges, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit node deletion: %w", err)
	}

	return node, edges, nil
}

func (r *graphRepository) CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	if err := insertConnection(ctx, r.db, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertConnection(ctx context.Context, db execer, conn *models.Connection) error {
	query := `
		INSERT INTO family_connections (owner_id, connection_id, source_node_id, target_node_id, relationship_type, style, label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	style, err := toJSON(conn.Style)
	if err != nil {
		return err
	}
	var label sql.NullString
	if conn.Label != nil {
		if label.String, err = toJSON(conn.Label); err != nil {
			return err
		}
		label.Valid = true
	}

	_, err = db.ExecContext(ctx, query,
		conn.OwnerID,
		conn.ConnectionID,
		conn.SourceNodeID,
		conn.TargetNodeID,
		string(conn.RelationshipType),
		style,
		label,
		conn.CreatedAt,
		conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", translate(err))
	}
	return nil
}

// Connections inserted by one save share created_at.
const listConnectionsQuery = `SELECT ` + connectionColumns + ` FROM family_connections WHERE owner_id = $1 ORDER BY created_at ASC, connection_id ASC`

func (r *graphRepository) ListConnections(ctx context.Context, ownerID string) ([]models.Connection, error) {
	rows, err := r.db.QueryContext(ctx, listConnectionsQuery, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	conns := []models.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, *c)
	}

	return conns, rows.Err()
}

func (r *graphRepository) DeleteConnection(ctx context.Context, ownerID, connectionID string) (bool, error) {
	query := `DELETE FROM family_connections WHERE owner_id = $1 AND connection_id = $2`

	result, err := r.db.ExecContext(ctx, query, ownerID, connectionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete connection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *graphRepository) ApplySave(ctx context.Context, ownerID string, plan familytree.SavePlan) error {
	if plan.Empty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, p := range plan.Positions {
		// unknown node ids update nothing
		if _, err := tx.ExecContext(ctx,
			`UPDATE family_nodes SET position_x = $3, position_y = $4, updated_at = $5 WHERE owner_id = $1 AND node_id = $2`,
			ownerID, p.NodeID, p.Position.X, p.Position.Y, now,
		); err != nil {
			return fmt.Errorf("failed to update position of node %s: %w", p.NodeID, err)
		}
	}

	if len(plan.DeleteEdges) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM family_connections WHERE owner_id = $1 AND connection_id = ANY($2)`,
			ownerID, pq.Array(plan.DeleteEdges),
		); err != nil {
			return fmt.Errorf("failed to delete stale connections: %w", err)
		}
	}

	for i := range plan.InsertEdges {
		conn := plan.InsertEdges[i]
		conn.OwnerID = ownerID
		conn.CreatedAt = now
		conn.UpdatedAt = now
		if err := insertConnection(ctx, tx, &conn); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tree save: %w", err)
	}
	return nil
}

func (r *graphRepository) Clear(ctx context.Context, ownerID string) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	nodes, err := deleteCount(ctx, tx, `DELETE FROM family_nodes WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear nodes: %w", err)
	}
	conns, err := deleteCount(ctx, tx, `DELETE FROM family_connections WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear connections: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	return nodes, conns, nil
}

func deleteCount(ctx context.Context, db execer, query string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
