package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/familytree"
	"github.com/Kerhoff/familyalbum/internal/imagehost"
	"github.com/Kerhoff/familyalbum/internal/models"
)

// AddressFields are the optional address parts of a member write.
type AddressFields struct {
	HouseNo *string
	Place   *string
	City    *string
	State   *string
	Country *string
}

func (a AddressFields) apply(dst *models.Address) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&dst.HouseNo, a.HouseNo)
	set(&dst.Place, a.Place)
	set(&dst.City, a.City)
	set(&dst.State, a.State)
	set(&dst.Country, a.Country)
}

// MemberFields carries a member write. Nil fields are left untouched on
// update. An empty ParentID and a zero DOB clear the stored value.
type MemberFields struct {
	Name       *string
	Relation   *string
	Gender     *string
	DOB        *time.Time
	Occupation *string
	ParentID   *string
	Address    AddressFields
}

func (f MemberFields) apply(m *models.Member) {
	if f.Name != nil {
		m.Name = *f.Name
	}
	if f.Relation != nil {
		m.Relation = models.ParseRelation(*f.Relation)
	}
	if f.Gender != nil {
		m.Gender = models.NormalizeGender(*f.Gender)
	}
	if f.DOB != nil {
		if f.DOB.IsZero() {
			m.DOB = nil
		} else {
			dob := *f.DOB
			m.DOB = &dob
		}
	}
	if f.Occupation != nil {
		m.Occupation = *f.Occupation
	}
	if f.ParentID != nil {
		if *f.ParentID == "" {
			m.ParentID = nil
		} else {
			parent := *f.ParentID
			m.ParentID = &parent
		}
	}
	f.Address.apply(&m.Address)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

var memberUpload = imagehost.UploadOptions{Folder: imagehost.FolderMembers}

// CreateMember adds a member to the caller's flat family. Name and relation
// are required. When a photo is attached it is uploaded first and a failed
// upload creates nothing.
func (s *Service) CreateMember(ctx context.Context, ownerID string, in MemberFields, photo *Upload) (*models.Member, error) {
	if blank(in.Name) || blank(in.Relation) {
		return nil, validationError("name and relation are required")
	}

	member := &models.Member{OwnerID: ownerID, Gender: models.GenderOther}
	in.apply(member)

	ref, err := s.upload(ctx, photo, memberUpload)
	if err != nil {
		return nil, err
	}
	member.Photo = ref

	created, err := s.Members.Create(ctx, member)
	if err != nil {
		s.releasePhotos(ctx, ref)
		return nil, internalError("failed to create member", err)
	}
	return created, nil
}

// GetMember returns one of the caller's members. Members of other owners
// are reported as missing.
func (s *Service) GetMember(ctx context.Context, ownerID, id string) (*models.Member, error) {
	member, err := s.Members.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, internalError("failed to load member", err)
	}
	if member == nil {
		return nil, notFoundError("member not found")
	}
	return member, nil
}

// FamilyTree builds the forest of targetUserID's members. Only the owner
// may read it.
func (s *Service) FamilyTree(ctx context.Context, callerID, targetUserID string) ([]*familytree.TreeNode, error) {
	if callerID != targetUserID {
		return nil, forbiddenError()
	}

	members, err := s.Members.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, internalError("failed to load family", err)
	}
	return familytree.Build(members), nil
}

// UpdateMember applies a partial update. A new photo replaces the old one,
// which is then released best-effort. A failed upload changes nothing.
func (s *Service) UpdateMember(ctx context.Context, ownerID, id string, in MemberFields, photo *Upload) (*models.Member, error) {
	member, err := s.GetMember(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && blank(in.Name) {
		return nil, validationError("name cannot be empty")
	}

	ref, err := s.upload(ctx, photo, memberUpload)
	if err != nil {
		return nil, err
	}

	in.apply(member)
	old := member.Photo
	if ref != nil {
		member.Photo = ref
	}

	updated, err := s.Members.Update(ctx, member)
	if err != nil {
		s.releasePhotos(ctx, ref)
		return nil, internalError("failed to update member", err)
	}
	if updated == nil {
		s.releasePhotos(ctx, ref)
		return nil, notFoundError("member not found")
	}
	if ref != nil {
		s.releasePhotos(ctx, old)
	}
	return updated, nil
}

// DeleteMember removes the member and every member descending from it by
// parent pointer. Hosted photos of the removed members are released
// best-effort before the records go. It returns how many members were
// deleted.
func (s *Service) DeleteMember(ctx context.Context, ownerID, id string) (int64, error) {
	members, err := s.Members.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, internalError("failed to load family", err)
	}

	subtree := familytree.Subtree(members, id)
	if len(subtree) == 0 {
		return 0, notFoundError("member not found")
	}

	refs := make([]*models.PhotoRef, 0, len(subtree))
	for i := range subtree {
		refs = append(refs, subtree[i].Photo)
	}
	s.releasePhotos(ctx, refs...)

	deleted, err := s.Members.DeleteMany(ctx, ownerID, familytree.IDs(subtree))
	if err != nil {
		return 0, internalError("failed to delete members", err)
	}

	s.logger.WithFields(logrus.Fields{
		"owner_id":  ownerID,
		"member_id": id,
		"count":     deleted,
	}).Info("deleted member subtree")
	return deleted, nil
}
