//go:build integration

package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/testhelpers"
)

func TestClothingItemRepository_CreateAndList(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	userID := uuid.New()
	t.Cleanup(func() { testhelpers.CleanupUser(t, engineDB.DB, userID) })

	ctx := testhelpers.UserContext(t, engineDB.DB, userID)
	repo := NewClothingItemRepository()

	quality := 8.5
	shirt := &models.ClothingItem{
		UserID:       userID,
		Category:     "top",
		Subcategory:  "oxford shirt",
		Color:        "white",
		StyleTags:    []string{"classic"},
		OccasionTags: []string{"work", "date"},
		QualityScore: &quality,
	}
	jeans := &models.ClothingItem{UserID: userID, Category: "bottom", Subcategory: "jeans"}

	require.NoError(t, repo.Create(ctx, shirt))
	require.NoError(t, repo.Create(ctx, jeans))
	assert.NotZero(t, shirt.ID)
	assert.Greater(t, jeans.ID, shirt.ID)

	got, err := repo.GetByID(ctx, userID, shirt.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "oxford shirt", got.Subcategory)
	assert.Equal(t, []string{"work", "date"}, got.OccasionTags)
	require.NotNil(t, got.QualityScore)
	assert.Equal(t, 8.5, *got.QualityScore)
	assert.Empty(t, got.SecondaryColors)

	all, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []int64{shirt.ID, jeans.ID}, models.ItemIDs(all))

	subset, err := repo.ListByIDs(ctx, userID, []int64{jeans.ID, 999999999})
	require.NoError(t, err)
	assert.Equal(t, []int64{jeans.ID}, models.ItemIDs(subset))
}

func TestClothingItemRepository_OtherUsersItemsInvisible(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	owner, other := uuid.New(), uuid.New()
	t.Cleanup(func() {
		testhelpers.CleanupUser(t, engineDB.DB, owner)
		testhelpers.CleanupUser(t, engineDB.DB, other)
	})

	repo := NewClothingItemRepository()
	ownerCtx := testhelpers.UserContext(t, engineDB.DB, owner)
	item := &models.ClothingItem{UserID: owner, Category: "shoes", Subcategory: "loafers"}
	require.NoError(t, repo.Create(ownerCtx, item))

	otherCtx := testhelpers.UserContext(t, engineDB.DB, other)
	got, err := repo.GetByID(otherCtx, other, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, repo.Delete(otherCtx, other, item.ID))
	require.NoError(t, repo.Delete(ownerCtx, owner, item.ID))
}
