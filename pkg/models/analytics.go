package models

// UsageHeatmap summarizes recent wardrobe activity.
type UsageHeatmap struct {
	UsedLastWeek int     `json:"used_last_week"`
	Percentage   float64 `json:"percentage"`
}

// OveruseAlert flags an item shown far more often than the wardrobe average.
type OveruseAlert struct {
	ItemID           int64   `json:"item_id"`
	Category         string  `json:"category"`
	Brand            string  `json:"brand,omitempty"`
	UsageCount       int     `json:"usage_count"`
	TimesOverAverage float64 `json:"times_over_average"`
}

// WardrobeAnalytics describes how evenly a user's wardrobe is being used.
type WardrobeAnalytics struct {
	TotalItems     int            `json:"total_items"`
	UsageHeatmap   UsageHeatmap   `json:"usage_heatmap"`
	DiversityIndex float64        `json:"diversity_index"`
	StalenessCount int            `json:"staleness_count"`
	OveruseAlerts  []OveruseAlert `json:"overuse_alerts"`
	SlotCounts     map[Slot]int   `json:"slot_counts"`
}
