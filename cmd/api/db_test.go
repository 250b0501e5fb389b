package main

import (
	"context"
	"testing"

	"storefront/internal/database/dbtest"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed_Idempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, seed(ctx, db, " Owner@Naturalia.ro ", "Owner", "secret1"))
	require.NoError(t, seed(ctx, db, "owner@naturalia.ro", "Owner", "secret1"))

	categories, err := repository.NewCategoryRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(defaultCategories))

	admin, err := repository.NewUserRepository(db).GetByEmail(ctx, "owner@naturalia.ro")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("secret1")))
}

func TestSeed_PromotesExistingAccount(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db)
	require.NoError(t, users.Create(ctx, &model.User{Email: "ana@example.com", Role: model.RoleUser, Provider: model.ProviderCredentials}))

	require.NoError(t, seed(ctx, db, "ana@example.com", "", "secret1"))

	u, err := users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
}

func TestSeed_RejectsShortPassword(t *testing.T) {
	db := dbtest.New(t)
	assert.Error(t, seed(context.Background(), db, "owner@naturalia.ro", "Owner", "123"))
}
