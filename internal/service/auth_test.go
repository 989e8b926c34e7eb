package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, RegisterInput{Name: " Ann ", Email: "Ann@Example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "token-"+res.User.ID, res.Token)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Equal(t, "Ann", res.User.Name)
	assert.False(t, res.User.IsPaid)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "pw"})
	assert.Equal(t, KindConflict, KindOf(err))

	login, err := f.svc.Login(ctx, "ANN@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, "ann@example.com", "nope")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "invalid credentials", MessageOf(err))

	_, err = f.svc.Login(ctx, "ghost@example.com", "pw")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRegisterRequiresAllFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Ann", Email: "ann@example.com"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCheckEntitlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@example.com")

	assert.Equal(t, KindPaymentRequired, KindOf(f.svc.CheckEntitlement(ctx, id)))
	assert.Equal(t, KindUnauthorized, KindOf(f.svc.CheckEntitlement(ctx, "ghost")))

	_, err := f.svc.FreeUpgrade(ctx, id)
	require.NoError(t, err)
	assert.NoError(t, f.svc.CheckEntitlement(ctx, id))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "a@example.com")

	me, err := f.svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)

	_, err = f.svc.Me(ctx, "ghost")
	assert.Equal(t, KindNotFound, KindOf(err))
}
