package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/auth"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IssuesToken(t *testing.T) {
	f := newFixture(t)

	u, token, err := f.users.Register(context.Background(), "  Cy  ", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "Cy", u.Name)
	require.NoError(t, uuid.Validate(u.ID))

	claims, err := auth.ParseToken(token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.users.Register(ctx, "", models.RoleStudent)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, _, err = f.users.Register(ctx, "Dee", models.Role("admin"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestUserGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Get(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bo", u.Name)

	_, err = f.users.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.users.Get(ctx, "bad")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
