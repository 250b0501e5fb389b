package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestimonialService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewTestimonialService(repository.NewTestimonialRepository(f.db))
	mod := f.user(t, "mod@naturalia.ro", model.RoleModerator)
	client := f.user(t, "client@example.com", model.RoleUser)

	t.Run("customers cannot manage testimonials", func(t *testing.T) {
		_, err := svc.Create(ctx, client, TestimonialRequest{Name: "Ana", Content: "Super"})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.ListAll(ctx, client)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, mod, TestimonialRequest{Name: "Ana"})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.Create(ctx, mod, TestimonialRequest{Name: "Ana", Content: "Bun", Rating: 6})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only visible entries are public", func(t *testing.T) {
		hidden := false
		visible, err := svc.Create(ctx, mod, TestimonialRequest{Name: "Ana", Location: "Cluj", Content: "Miere excelentă", Rating: 5})
		require.NoError(t, err)
		assert.True(t, visible.IsVisible)
		_, err = svc.Create(ctx, mod, TestimonialRequest{Name: "Ion", Content: "Ok", Rating: 3, IsVisible: &hidden})
		require.NoError(t, err)

		public, err := svc.ListVisible(ctx)
		require.NoError(t, err)
		require.Len(t, public, 1)
		assert.Equal(t, visible.ID, public[0].ID)

		all, err := svc.ListAll(ctx, mod)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		updated, err := svc.Update(ctx, mod, visible.ID, TestimonialRequest{Name: "Ana", Content: "Miere excelentă", Rating: 4, IsVisible: &hidden})
		require.NoError(t, err)
		assert.Equal(t, 4, updated.Rating)
		assert.False(t, updated.IsVisible)

		require.NoError(t, svc.Delete(ctx, mod, visible.ID))
		assert.ErrorIs(t, svc.Delete(ctx, mod, visible.ID), ErrNotFound)
		_, err = svc.Update(ctx, mod, uuid.New(), TestimonialRequest{Name: "x", Content: "y"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
