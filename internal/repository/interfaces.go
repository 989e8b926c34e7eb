package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/models"
)

// ErrDuplicate is returned when a write violates a unique index
var ErrDuplicate = errors.New("duplicate key")

// Single-row lookups return (nil, nil) when nothing matches.

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetPaid(ctx context.Context, id string, paid bool) (*models.User, error)
}

// MemberRepository defines the interface for flat family model operations.
// Every call is scoped by owner.
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) (*models.Member, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Member, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Member, error)
	Update(ctx context.Context, member *models.Member) (*models.Member, error)
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error)
}

// GraphRepository defines the interface for the node/connection canvas.
// Every call is scoped by owner.
type GraphRepository interface {
	CreateNode(ctx context.Context, node *models.Node) (*models.Node, error)
	GetNode(ctx context.Context, ownerID, nodeID string) (*models.Node, error)
	FindNodeByName(ctx context.Context, ownerID, name string) (*models.Node, error)
	ListNodes(ctx context.Context, ownerID string) ([]models.Node, error)
	UpdateNode(ctx context.Context, node *models.Node) (*models.Node, error)
	// DeleteNode removes the node and every connection touching it. It
	// returns a nil node when nothing matched.
	DeleteNode(ctx context.Context, ownerID, nodeID string) (*models.Node, int64, error)

	CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	ListConnections(ctx context.Context, ownerID string) ([]models.Connection, error)
	DeleteConnection(ctx context.Context, ownerID, connectionID string) (bool, error)

	// ApplySave writes positions, edge deletions and edge insertions of a
	// plan as one unit.
	ApplySave(ctx context.Context, ownerID string, plan familytree.SavePlan) error
	// Clear removes every node and connection of the owner.
	Clear(ctx context.Context, ownerID string) (nodes int64, connections int64, err error)
}

// PhotoRepository defines the interface for album photo operations
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Photo, error)
	List(ctx context.Context, ownerID string, filters PhotoFilters) ([]models.Photo, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// PaymentRepository defines the interface for the payment ledger
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, intentID string, status models.PaymentStatus) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Payment, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error)
}

// PhotoFilters represents filters for listing photos
type PhotoFilters struct {
	Category *string
}
