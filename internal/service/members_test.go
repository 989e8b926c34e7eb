package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/familyalbum/internal/imagehost"
)

func TestCreateMemberValidatesBeforeUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateMember(context.Background(), "u1", MemberFields{Name: str("Ann")}, image())
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, f.images.uploads)
}

func TestCreateMemberAbortsOnUploadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.images.failNext = true

	_, err := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Ann"), Relation: str("self")}, image())
	assert.Equal(t, KindUnavailable, KindOf(err))

	members, err := f.svc.Members.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCreateMemberWithPhoto(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.CreateMember(context.Background(), "u1", MemberFields{
		Name:     str("Ann"),
		Relation: str("Self"),
		Gender:   str("female"),
		Address:  AddressFields{City: str("Pune")},
	}, image())
	require.NoError(t, err)
	require.NotNil(t, m.Photo)
	assert.Equal(t, "female", m.Gender)
	assert.Equal(t, "Pune", m.Address.City)
	assert.Equal(t, "Self", m.Relation.Label)
	assert.Equal(t, []imagehost.UploadOptions{{Folder: imagehost.FolderMembers}}, f.images.uploads)
}

func TestFamilyTreeIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Raj"), Relation: str("self")}, nil)
	require.NoError(t, err)
	son, err := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Dev"), Relation: str("son"), ParentID: &root.ID}, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Mia"), Relation: str("wife"), ParentID: &son.ID}, nil)
	require.NoError(t, err)

	_, err = f.svc.FamilyTree(ctx, "u2", "u1")
	assert.Equal(t, KindForbidden, KindOf(err))

	tree, err := f.svc.FamilyTree(ctx, "u1", "u1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.NotNil(t, tree[0].Children[0].Spouse)
	assert.Equal(t, "Mia", tree[0].Children[0].Spouse.Name)
}

func TestUpdateMemberReplacesPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Ann"), Relation: str("self")}, image())
	require.NoError(t, err)
	oldID := m.Photo.PublicID

	updated, err := f.svc.UpdateMember(ctx, "u1", m.ID, MemberFields{Occupation: str("Chef"), ParentID: str("")}, image())
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "Chef", updated.Occupation)
	assert.Nil(t, updated.ParentID)
	assert.NotEqual(t, oldID, updated.Photo.PublicID)
	assert.Equal(t, []string{oldID}, f.images.destroyed)

	_, err = f.svc.UpdateMember(ctx, "u2", m.ID, MemberFields{Name: str("x")}, nil)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateMemberUploadFailureChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Ann"), Relation: str("self")}, nil)
	require.NoError(t, err)

	f.images.failNext = true
	_, err = f.svc.UpdateMember(ctx, "u1", m.ID, MemberFields{Name: str("Changed")}, image())
	assert.Equal(t, KindUnavailable, KindOf(err))

	got, err := f.svc.GetMember(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
}

func TestDeleteMemberRemovesSubtreeOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, _ := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Root"), Relation: str("self")}, nil)
	a, _ := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("A"), Relation: str("son"), ParentID: &root.ID}, image())
	b, _ := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("B"), Relation: str("daughter"), ParentID: &a.ID}, nil)
	// a non-child relation still hangs off the parent pointer chain
	c, _ := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("C"), Relation: str("wife"), ParentID: &b.ID}, nil)
	other, _ := f.svc.CreateMember(ctx, "u1", MemberFields{Name: str("Other"), Relation: str("son"), ParentID: &root.ID}, nil)

	f.images.failDrop = true
	count, err := f.svc.DeleteMember(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, f.images.destroyed, 1)

	left, err := f.svc.Members.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	ids := []string{}
	for _, m := range left {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{root.ID, other.ID}, ids)
	assert.NotContains(t, ids, c.ID)

	_, err = f.svc.DeleteMember(ctx, "u2", root.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}
