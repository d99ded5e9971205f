//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/testhelpers"
)

type usageTestContext struct {
	t      *testing.T
	ctx    context.Context
	repo   UsageRepository
	userID uuid.UUID
	itemID int64
}

func setupUsageTest(t *testing.T) *usageTestContext {
	engineDB := testhelpers.GetEngineDB(t)
	userID := uuid.New()
	t.Cleanup(func() { testhelpers.CleanupUser(t, engineDB.DB, userID) })

	ctx := testhelpers.UserContext(t, engineDB.DB, userID)
	item := &models.ClothingItem{UserID: userID, Category: "top", Subcategory: "t-shirt"}
	require.NoError(t, NewClothingItemRepository().Create(ctx, item))

	return &usageTestContext{t: t, ctx: ctx, repo: NewUsageRepository(), userID: userID, itemID: item.ID}
}

func TestUsageRepository_InsertThenConditionalUpdate(t *testing.T) {
	tc := setupUsageTest(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	rec := models.NewUsageRecord(tc.userID, tc.itemID).ApplyShown("work", false, now)
	inserted, err := tc.repo.Insert(tc.ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), rec.Version)

	again, err := tc.repo.Insert(tc.ctx, models.NewUsageRecord(tc.userID, tc.itemID))
	require.NoError(t, err)
	assert.False(t, again, "second insert must not overwrite")

	stored, err := tc.repo.Get(tc.ctx, tc.userID, tc.itemID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.TotalShown)
	assert.Equal(t, map[string]int{"work": 1}, stored.OccasionCounts)

	next := stored.ApplyShown("date", true, now.Add(time.Hour))
	ok, err := tc.repo.UpdateIfVersion(tc.ctx, next, stored.Version)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), next.Version)

	stale := stored.ApplyShown("party", false, now.Add(2*time.Hour))
	ok, err = tc.repo.UpdateIfVersion(tc.ctx, stale, stored.Version)
	require.NoError(t, err)
	assert.False(t, ok, "update against an old version must lose")

	final, err := tc.repo.Get(tc.ctx, tc.userID, tc.itemID)
	require.NoError(t, err)
	assert.Equal(t, 2, final.TotalShown)
	assert.Equal(t, 1, final.TotalFavorited)
	assert.Equal(t, map[string]int{"work": 1, "date": 1}, final.OccasionCounts)
	assert.InDelta(t, 0.5, final.SuccessRate, 1e-9)
}

func TestUsageRepository_ListAndDelete(t *testing.T) {
	tc := setupUsageTest(t)

	missing, err := tc.repo.Get(tc.ctx, tc.userID, tc.itemID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = tc.repo.Insert(tc.ctx, models.NewUsageRecord(tc.userID, tc.itemID).ApplyShown("casual", false, time.Now()))
	require.NoError(t, err)

	byItems, err := tc.repo.ListByItems(tc.ctx, tc.userID, []int64{tc.itemID})
	require.NoError(t, err)
	assert.Len(t, byItems, 1)

	all, err := tc.repo.ListByUser(tc.ctx, tc.userID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	deleted, err := tc.repo.DeleteByUser(tc.ctx, tc.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	all, err = tc.repo.ListByUser(tc.ctx, tc.userID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
