package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/familyalbum/internal/models"
)

type memberRepository struct {
	s *Store
}

func cloneMember(m models.Member) models.Member {
	m.ParentID = copyString(m.ParentID)
	m.Photo = copyPhoto(m.Photo)
	if m.DOB != nil {
		t := *m.DOB
		m.DOB = &t
	}
	return m
}

func (r *memberRepository) Create(_ context.Context, member *models.Member) (*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if member.ID == "" {
		member.ID = models.NewID()
	}
	if _, ok := r.s.members[member.ID]; ok {
		return nil, fmt.Errorf("failed to create family member: %w", duplicate("family_members_pkey"))
	}

	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now
	r.s.members[member.ID] = cloneMember(*member)
	r.s.memberAt[member.ID] = r.s.next()

	out := cloneMember(*member)
	return &out, nil
}

func (r *memberRepository) GetByID(_ context.Context, ownerID, id string) (*models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[id]
	if !ok || m.OwnerID != ownerID {
		return nil, nil
	}
	out := cloneMember(m)
	return &out, nil
}

func (r *memberRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := []models.Member{}
	for _, m := range r.s.members {
		if m.OwnerID == ownerID {
			members = append(members, cloneMember(m))
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return r.s.memberAt[members[i].ID] < r.s.memberAt[members[j].ID]
	})
	return members, nil
}

func (r *memberRepository) Update(_ context.Context, member *models.Member) (*models.Member, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.members[member.ID]
	if !ok || stored.OwnerID != member.OwnerID {
		return nil, nil
	}

	member.CreatedAt = stored.CreatedAt
	member.UpdatedAt = time.Now()
	r.s.members[member.ID] = cloneMember(*member)

	out := cloneMember(*member)
	return &out, nil
}

func (r *memberRepository) DeleteMany(_ context.Context, ownerID string, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		m, ok := r.s.members[id]
		if !ok || m.OwnerID != ownerID {
			continue
		}
		delete(r.s.members, id)
		delete(r.s.memberAt, id)
		deleted++
	}
	return deleted, nil
}
