package outfit

import (
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

func item(id int64, category, subcategory string) *models.ClothingItem {
	return &models.ClothingItem{ID: id, Category: category, Subcategory: subcategory}
}

func tagged(it *models.ClothingItem, occasions ...string) *models.ClothingItem {
	it.OccasionTags = occasions
	return it
}

func styled(it *models.ClothingItem, styles ...string) *models.ClothingItem {
	it.StyleTags = styles
	return it
}

func quality(v float64) *float64 {
	return &v
}

// basicOutfit is a structurally valid four piece outfit.
func basicOutfit() []*models.ClothingItem {
	return []*models.ClothingItem{
		item(1, "shirt", "t-shirt"),
		item(2, "pants", "jeans"),
		item(3, "shoes", "sneakers"),
		item(4, "accessory", "watch"),
	}
}
