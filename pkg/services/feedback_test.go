package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/apperrors"
)

type feedbackFixture struct {
	usage   *mockUsageRepo
	history *mockHistoryRepo
	cache   *mockAnalyticsCache
	service FeedbackService
}

func newFeedbackFixture() *feedbackFixture {
	f := &feedbackFixture{
		usage:   newMockUsageRepo(),
		history: &mockHistoryRepo{},
		cache:   newMockAnalyticsCache(),
	}
	ledger := NewUsageLedger(f.usage, f.history, newMockTransactor(f.usage, f.history), 2, zap.NewNop())
	f.service = NewFeedbackService(&mockClothingItemRepo{items: casualWardrobe()}, f.history, ledger, f.cache, zap.NewNop())
	return f
}

func TestFeedback_Favorite(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	entry, err := f.service.Favorite(ctx, testUserID, []int64{1, 2, 3, 1}, "casual", "Weekend")
	require.NoError(t, err)

	assert.True(t, entry.Favorited)
	assert.Equal(t, []int64{1, 2, 3}, entry.ItemIDs)
	rec, err := f.usage.Get(ctx, testUserID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalShown)
	assert.Equal(t, 1, rec.TotalFavorited)
	assert.Equal(t, 1.0, rec.SuccessRate)
	require.Len(t, f.history.entries, 1)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestFeedback_DismissLeavesCountersAlone(t *testing.T) {
	f := newFeedbackFixture()

	entry, err := f.service.Dismiss(context.Background(), testUserID, []int64{5, 6, 7}, "work", "Office")
	require.NoError(t, err)

	assert.True(t, entry.Dismissed)
	assert.False(t, entry.Favorited)
	assert.Zero(t, f.usage.writes)
	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "work", f.history.entries[0].Occasion)
}

func TestFeedback_RejectsUnknownItems(t *testing.T) {
	f := newFeedbackFixture()

	_, err := f.service.Favorite(context.Background(), testUserID, []int64{1, 404}, "casual", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.service.Dismiss(context.Background(), testUserID, nil, "casual", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))

	assert.Zero(t, f.usage.writes)
	assert.Empty(t, f.history.entries)
}

func TestFeedback_FavoriteIsAllOrNothing(t *testing.T) {
	f := newFeedbackFixture()
	f.history.appendErr = errors.New("disk full")

	_, err := f.service.Favorite(context.Background(), testUserID, []int64{1, 2, 3}, "casual", "Weekend")
	require.Error(t, err)

	for _, id := range []int64{1, 2, 3} {
		assert.Zero(t, f.usage.shown(id), "item %d", id)
	}
	assert.Empty(t, f.history.entries)
	assert.Zero(t, f.cache.invalidations)
}

func TestFeedback_ListFavorites(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	first, err := f.service.Favorite(ctx, testUserID, []int64{1, 2, 3}, "casual", "First")
	require.NoError(t, err)
	_, err = f.service.Dismiss(ctx, testUserID, []int64{5, 6, 7}, "casual", "Skipped")
	require.NoError(t, err)
	second, err := f.service.Favorite(ctx, testUserID, []int64{5, 6, 3}, "casual", "Second")
	require.NoError(t, err)

	favorites, err := f.service.ListFavorites(ctx, testUserID, 0, 0)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, second.ID, favorites[0].ID)
	assert.Equal(t, first.ID, favorites[1].ID)
	for _, fav := range favorites {
		assert.True(t, fav.Favorited)
	}

	page, err := f.service.ListFavorites(ctx, testUserID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	_, err = f.service.ListFavorites(ctx, testUserID, -1, 0)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRequest))
}

func TestFeedback_RemoveFavorite(t *testing.T) {
	f := newFeedbackFixture()
	ctx := context.Background()

	entry, err := f.service.Favorite(ctx, testUserID, []int64{1, 2, 3}, "casual", "Weekend")
	require.NoError(t, err)

	require.NoError(t, f.service.RemoveFavorite(ctx, testUserID, entry.ID))

	favorites, err := f.service.ListFavorites(ctx, testUserID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, favorites)
	assert.Len(t, f.history.entries, 1)
	assert.Equal(t, 1, f.usage.shown(1))

	err = f.service.RemoveFavorite(ctx, testUserID, entry.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
