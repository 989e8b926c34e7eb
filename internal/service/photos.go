package service

import (
	"context"
	"strings"

	"github.com/Kerhoff/familyalbum/internal/imagehost"
	"github.com/Kerhoff/familyalbum/internal/models"
	"github.com/Kerhoff/familyalbum/internal/repository"
)

var albumUpload = imagehost.UploadOptions{Folder: imagehost.FolderAlbum}

// UploadPhoto stores an album photo. An empty category becomes the default
// one.
func (s *Service) UploadPhoto(ctx context.Context, ownerID, category string, photo *Upload) (*models.Photo, error) {
	if photo == nil {
		return nil, validationError("no file uploaded")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = models.DefaultPhotoCategory
	}

	ref, err := s.upload(ctx, photo, albumUpload)
	if err != nil {
		return nil, err
	}

	created, err := s.Photos.Create(ctx, &models.Photo{
		URL:        ref.URL,
		PublicID:   ref.PublicID,
		Category:   category,
		UploadedBy: ownerID,
	})
	if err != nil {
		s.releasePhotos(ctx, ref)
		return nil, internalError("failed to save photo", err)
	}
	return created, nil
}

// ListPhotos returns the caller's photos newest first, optionally limited
// to one category.
func (s *Service) ListPhotos(ctx context.Context, ownerID, category string) ([]models.Photo, error) {
	var filters repository.PhotoFilters
	if category != "" {
		filters.Category = &category
	}
	photos, err := s.Photos.List(ctx, ownerID, filters)
	if err != nil {
		return nil, internalError("failed to fetch photos", err)
	}
	return photos, nil
}

// DeletePhoto destroys the hosted image and then the record. The hosted
// delete is best-effort.
func (s *Service) DeletePhoto(ctx context.Context, ownerID, id string) error {
	photo, err := s.Photos.GetByID(ctx, ownerID, id)
	if err != nil {
		return internalError("failed to delete photo", err)
	}
	if photo == nil {
		return notFoundError("photo not found")
	}

	s.releasePhotos(ctx, &models.PhotoRef{URL: photo.URL, PublicID: photo.PublicID})

	if err := s.Photos.Delete(ctx, ownerID, id); err != nil {
		return internalError("failed to delete photo", err)
	}
	return nil
}
