package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/audioshelf/internal/domainerr"
)

func TestAddReview(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Book")

	review, err := env.reviews.AddReview(ctx, env.alice, book.ID, 5, " loved it ")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "loved it", review.Comment)

	_, err = env.reviews.AddReview(ctx, env.alice, book.ID, 1, "changed my mind")
	assert.ErrorIs(t, err, domainerr.ErrConflict)

	list, err := env.reviews.ListReviews(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Rating)

	_, err = env.reviews.AddReview(ctx, env.bob, book.ID, 2, "")
	require.NoError(t, err)

	summary, err := env.reviews.RatingSummary(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 3.5, summary.Average, 0.001)
}

func TestAddReview_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Book")

	for _, rating := range []int{0, 6, -3} {
		_, err := env.reviews.AddReview(ctx, env.alice, book.ID, rating, "")
		assert.ErrorIs(t, err, domainerr.ErrInvalidInput, "rating %d", rating)
	}

	_, err := env.reviews.AddReview(ctx, env.alice, 999, 3, "")
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = env.reviews.AddReview(ctx, Anonymous, book.ID, 3, "")
	assert.ErrorIs(t, err, domainerr.ErrUnauthorized)

	assert.Zero(t, env.count(t, "reviews", "1 = 1"))
	_, err = env.reviews.ListReviews(ctx, 999)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestAddReview_Audited(t *testing.T) {
	env := setupTestEnv(t)
	book := env.createBook(t, "Book")

	_, err := env.reviews.AddReview(context.Background(), env.alice, book.ID, 4, "")
	require.NoError(t, err)

	calls := env.audit.Calls()
	assert.Equal(t, "review_create", calls[len(calls)-1].Action)
}

func TestActor(t *testing.T) {
	assert.False(t, Anonymous.Authenticated())
	assert.ErrorIs(t, Anonymous.requireUser(), domainerr.ErrUnauthorized)
	assert.ErrorIs(t, Actor{UserID: 3}.requireAdmin(), domainerr.ErrPermissionDenied)
	assert.NoError(t, Actor{UserID: 1, Admin: true}.requireAdmin())
}
