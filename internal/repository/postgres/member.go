package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

type memberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new family member repository
func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

const memberColumns = `id, owner_id, name, relation, parent_id, gender, dob, address, occupation, photo_url, photo_public_id, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	var (
		m        models.Member
		parentID sql.NullString
		dob      sql.NullTime
		address  []byte
		photoURL sql.NullString
		photoPub sql.NullString
	)
	if err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&m.Name,
		&m.Relation,
		&parentID,
		&m.Gender,
		&dob,
		&address,
		&m.Occupation,
		&photoURL,
		&photoPub,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.ParentID = stringPtr(parentID)
	if dob.Valid {
		t := dob.Time
		m.DOB = &t
	}
	if err := fromJSON(address, &m.Address); err != nil {
		return nil, err
	}
	m.Photo = photoFromColumns(photoURL, photoPub)
	return &m, nil
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	query := `
		INSERT INTO family_members (id, owner_id, name, relation, parent_id, gender, dob, address, occupation, photo_url, photo_public_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	now := time.Now()
	if member.ID == "" {
		member.ID = models.NewID()
	}
	member.CreatedAt = now
	member.UpdatedAt = now

	address, err := toJSON(member.Address)
	if err != nil {
		return nil, err
	}
	photoURL, photoPub := photoColumns(member.Photo)

	err = r.db.QueryRowContext(ctx, query,
		member.ID,
		member.OwnerID,
		member.Name,
		member.Relation,
		nullableString(member.ParentID),
		member.Gender,
		member.DOB,
		address,
		member.Occupation,
		photoURL,
		photoPub,
		member.CreatedAt,
		member.UpdatedAt,
	).Scan(&member.CreatedAt, &member.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create family member: %w", translate(err))
	}

	return member, nil
}

func (r *memberRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM family_members WHERE owner_id = $1 AND id = $2`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get family member: %w", err)
	}

	return member, nil
}

func (r *memberRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM family_members WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, *m)
	}

	return members, rows.Err()
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) (*models.Member, error) {
	query := `
		UPDATE family_members
		SET name = $3, relation = $4, parent_id = $5, gender = $6, dob = $7, address = $8,
		    occupation = $9, photo_url = $10, photo_public_id = $11, updated_at = $12
		WHERE owner_id = $1 AND id = $2
		RETURNING updated_at`

	member.UpdatedAt = time.Now()

	address, err := toJSON(member.Address)
	if err != nil {
		return nil, err
	}
	photoURL, photoPub := photoColumns(member.Photo)

	err = r.db.QueryRowContext(ctx, query,
		member.OwnerID,
		member.ID,
		member.Name,
		member.Relation,
		nullableString(member.ParentID),
		member.Gender,
		member.DOB,
		address,
		member.Occupation,
		photoURL,
		photoPub,
		member.UpdatedAt,
	).Scan(&member.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update family member %s: %w", member.ID, translate(err))
	}

	return member, nil
}

func (r *memberRepository) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM family_members WHERE owner_id = $1 AND id = ANY($2)`

	result, err := r.db.ExecContext(ctx, query, ownerID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete family members: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
