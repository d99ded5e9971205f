package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// UsageRecord tracks how often an item has been shown to a user.
// Counters only grow; the only way down is an explicit usage reset.
type UsageRecord struct {
	UserID           uuid.UUID      `json:"user_id"`
	ItemID           int64          `json:"item_id"`
	TotalShown       int            `json:"total_shown"`
	TotalFavorited   int            `json:"total_favorited"`
	OccasionCounts   map[string]int `json:"occasion_counts"`
	SuccessRate      float64        `json:"success_rate"`
	VersatilityScore float64        `json:"versatility_score"`
	FirstShownAt     *time.Time     `json:"first_shown_at,omitempty"`
	LastShownAt      *time.Time     `json:"last_shown_at,omitempty"`

	// Version is the optimistic concurrency token. Zero means the record
	// has not been persisted yet.
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUsageRecord returns an empty, unpersisted record.
func NewUsageRecord(userID uuid.UUID, itemID int64) *UsageRecord {
	return &UsageRecord{
		UserID:         userID,
		ItemID:         itemID,
		OccasionCounts: map[string]int{},
	}
}

// ApplyShown returns a copy of the record with one more showing applied.
// The receiver is left untouched so a failed conditional write can be retried
// from a fresh read.
func (r *UsageRecord) ApplyShown(occasion string, favorited bool, now time.Time) *UsageRecord {
	next := *r
	next.OccasionCounts = make(map[string]int, len(r.OccasionCounts)+1)
	for k, v := range r.OccasionCounts {
		next.OccasionCounts[k] = v
	}

	next.TotalShown++
	if favorited {
		next.TotalFavorited++
	}
	next.OccasionCounts[occasion]++

	shownAt := now
	next.LastShownAt = &shownAt
	if next.FirstShownAt == nil {
		first := now
		next.FirstShownAt = &first
	}

	next.SuccessRate = 0
	if next.TotalShown > 0 {
		next.SuccessRate = float64(next.TotalFavorited) / float64(next.TotalShown)
	}
	next.VersatilityScore = float64(len(next.OccasionCounts))
	next.UpdatedAt = now
	return &next
}

// OutfitHistoryEntry is an immutable record of one outfit shown to a user.
type OutfitHistoryEntry struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ItemIDs    []int64   `json:"item_ids"`
	Occasion   string    `json:"occasion"`
	OutfitName string    `json:"outfit_name"`
	ShownAt    time.Time `json:"shown_at"`
	Favorited  bool      `json:"favorited"`
	Dismissed  bool      `json:"dismissed"`
}

// ItemSet returns the entry's items as a set.
func (e *OutfitHistoryEntry) ItemSet() ItemSet {
	return NewItemSet(e.ItemIDs...)
}

// ItemSet is an unordered set of clothing item IDs.
type ItemSet map[int64]struct{}

// NewItemSet builds a set from the given IDs.
func NewItemSet(ids ...int64) ItemSet {
	s := make(ItemSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s ItemSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// IntersectionSize counts the members shared with other.
func (s ItemSet) IntersectionSize(other ItemSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for id := range small {
		if large.Contains(id) {
			n++
		}
	}
	return n
}

// Sorted returns the members in ascending order.
func (s ItemSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
