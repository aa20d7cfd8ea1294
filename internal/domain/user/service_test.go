package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
)

func newTestUserService() *user.Service {
	return user.NewService(store.NewMemory())
}

func validInput() user.CreateInput {
	return user.CreateInput{
		LastName:  "Kone",
		FirstName: "Fatou",
		Email:     "  Fatou@Example.com ",
		Password:  "s3cret-pass",
	}
}

func TestService_RegisterForcesClientRole(t *testing.T) {
	svc := newTestUserService()
	in := validInput()
	in.Role = auth.RoleAdmin

	u, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, auth.RoleClient, u.Role)
	assert.Equal(t, "fatou@example.com", u.Email)
	assert.True(t, u.Active)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestUserService()

	tests := []struct {
		name   string
		mutate func(*user.CreateInput)
		want   error
	}{
		{"bad email", func(in *user.CreateInput) { in.Email = "nope" }, user.ErrInvalidEmail},
		{"no last name", func(in *user.CreateInput) { in.LastName = "" }, user.ErrInvalidName},
		{"bad role", func(in *user.CreateInput) { in.Role = "root" }, user.ErrInvalidRole},
		{"short password", func(in *user.CreateInput) { in.Password = "short" }, auth.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_DuplicateEmail(t *testing.T) {
	svc := newTestUserService()
	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "FATOU@example.com"
	_, err = svc.Create(context.Background(), in)

	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestService_Authenticate(t *testing.T) {
	svc := newTestUserService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "FATOU@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.Authenticate(ctx, "fatou@example.com", "wrong-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ghost@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	inactive := false
	_, err = svc.Update(ctx, created.ID, user.UpdateInput{Active: &inactive})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "fatou@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, user.ErrUserDeactivated)
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc := newTestUserService()
	ctx := context.Background()
	u, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	phone := "+221 77 000 00 00"
	role := auth.RoleMerchant
	updated, err := svc.Update(ctx, u.ID, user.UpdateInput{Phone: &phone, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, auth.RoleMerchant, updated.Role)
	assert.Equal(t, "Kone", updated.LastName)

	empty := ""
	_, err = svc.Update(ctx, u.ID, user.UpdateInput{LastName: &empty})
	assert.ErrorIs(t, err, user.ErrInvalidName)

	merchants, err := svc.List(ctx, user.Filter{Role: auth.RoleMerchant})
	require.NoError(t, err)
	assert.Len(t, merchants, 1)

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
