package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

type photoRepository struct {
	s *Store
}

func (r *photoRepository) Create(_ context.Context, photo *models.Photo) (*models.Photo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if photo.ID == "" {
		photo.ID = models.NewID()
	}
	if _, ok := r.s.photos[photo.ID]; ok {
		return nil, fmt.Errorf("failed to create photo: %w", duplicate("photos_pkey"))
	}
	photo.CreatedAt = time.Now()
	r.s.photos[photo.ID] = *photo
	r.s.photoAt[photo.ID] = r.s.next()

	out := *photo
	return &out, nil
}

func (r *photoRepository) GetByID(_ context.Context, ownerID, id string) (*models.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.photos[id]
	if !ok || p.UploadedBy != ownerID {
		return nil, nil
	}
	return &p, nil
}

func (r *photoRepository) List(_ context.Context, ownerID string, filters repository.PhotoFilters) ([]models.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	photos := []models.Photo{}
	for _, p := range r.s.photos {
		if p.UploadedBy != ownerID {
			continue
		}
		if filters.Category != nil && p.Category != *filters.Category {
			continue
		}
		photos = append(photos, p)
	}
	// newest first
	sort.Slice(photos, func(i, j int) bool {
		return r.s.photoAt[photos[i].ID] > r.s.photoAt[photos[j].ID]
	})
	return photos, nil
}

func (r *photoRepository) Delete(_ context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.photos[id]
	if !ok || p.UploadedBy != ownerID {
		return fmt.Errorf("photo %s not found", id)
	}
	delete(r.s.photos, id)
	delete(r.s.photoAt, id)
	return nil
}
