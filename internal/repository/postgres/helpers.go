package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

// uniqueViolation is the SQLSTATE postgres reports for duplicate keys
const uniqueViolation = "23505"

// translate maps driver errors onto repository errors.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json column: %w", err)
	}
	return string(b), nil
}

func fromJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

// photoColumns splits a photo reference into its two nullable columns.
func photoColumns(p *models.PhotoRef) (sql.NullString, sql.NullString) {
	if p == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: p.URL, Valid: true}, sql.NullString{String: p.PublicID, Valid: p.PublicID != ""}
}

func photoFromColumns(url, publicID sql.NullString) *models.PhotoRef {
	if !url.Valid {
		return nil
	}
	return &models.PhotoRef{URL: url.String, PublicID: publicID.String}
}

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
