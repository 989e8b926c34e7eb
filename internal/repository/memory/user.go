package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.s.emails[email]; ok {
		return nil, fmt.Errorf("failed to create user: %w", duplicate("users_email_key"))
	}
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if _, ok := r.s.users[user.ID]; ok {
		return nil, fmt.Errorf("failed to create user: %w", duplicate("users_pkey"))
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	r.s.emails[email] = user.ID

	out := *user
	return &out, nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *userRepository) SetPaid(_ context.Context, id string, paid bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u.IsPaid = paid
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return &u, nil
}
