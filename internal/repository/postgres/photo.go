package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

type photoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new album photo repository
func NewPhotoRepository(db *sql.DB) repository.PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query := `
		INSERT INTO photos (id, url, public_id, category, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if photo.ID == "" {
		photo.ID = models.NewID()
	}
	photo.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		photo.ID,
		photo.URL,
		photo.PublicID,
		photo.Category,
		photo.UploadedBy,
		photo.CreatedAt,
	).Scan(&photo.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", translate(err))
	}

	return photo, nil
}

func (r *photoRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Photo, error) {
	query := `
		SELECT id, url, public_id, category, uploaded_by, created_at
		FROM photos
		WHERE id = $1 AND uploaded_by = $2`

	photo := &models.Photo{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&photo.ID,
		&photo.URL,
		&photo.PublicID,
		&photo.Category,
		&photo.UploadedBy,
		&photo.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	return photo, nil
}

func (r *photoRepository) List(ctx context.Context, ownerID string, filters repository.PhotoFilters) ([]models.Photo, error) {
	query := `SELECT id, url, public_id, category, uploaded_by, created_at
		FROM photos WHERE uploaded_by = $1`
	args := []interface{}{ownerID}

	if filters.Category != nil {
		query += " AND category = $2"
		args = append(args, *filters.Category)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.URL, &p.PublicID, &p.Category, &p.UploadedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *photoRepository) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM photos WHERE id = $1 AND uploaded_by = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("photo %s not found", id)
	}

	return nil
}
