package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/prompts"
)

// mockClothingItemRepo implements repositories.ClothingItemRepository for testing.
type mockClothingItemRepo struct {
	items   []*models.ClothingItem
	listErr error
}

func (m *mockClothingItemRepo) Create(_ context.Context, item *models.ClothingItem) error {
	item.ID = int64(len(m.items) + 1)
	m.items = append(m.items, item)
	return nil
}

func (m *mockClothingItemRepo) GetByID(_ context.Context, userID uuid.UUID, id int64) (*models.ClothingItem, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func (m *mockClothingItemRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.ClothingItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.ClothingItem
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockClothingItemRepo) ListByIDs(_ context.Context, userID uuid.UUID, ids []int64) ([]*models.ClothingItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.ClothingItem
	for _, item := range m.items {
		if item.UserID == userID && slices.Contains(ids, item.ID) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockClothingItemRepo) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	m.items = slices.DeleteFunc(m.items, func(item *models.ClothingItem) bool {
		return item.UserID == userID && item.ID == id
	})
	return nil
}

// mockStyleProfileRepo implements repositories.StyleProfileRepository for testing.
type mockStyleProfileRepo struct {
	profile *models.StyleProfile
}

func (m *mockStyleProfileRepo) Get(_ context.Context, userID uuid.UUID) (*models.StyleProfile, error) {
	if m.profile == nil || m.profile.UserID != userID {
		return nil, nil
	}
	return m.profile, nil
}

func (m *mockStyleProfileRepo) Upsert(_ context.Context, profile *models.StyleProfile) error {
	m.profile = profile
	return nil
}

// mockUsageRepo is an in-memory usage store with version checks.
// beforeWrite runs ahead of every conditional write and can simulate a
// competing writer.
type mockUsageRepo struct {
	mu          sync.Mutex
	records     map[int64]*models.UsageRecord
	beforeWrite func(r *mockUsageRepo, itemID int64)
	getErr      error
	writes      int
}

func newMockUsageRepo() *mockUsageRepo {
	return &mockUsageRepo{records: map[int64]*models.UsageRecord{}}
}

func copyRecord(rec *models.UsageRecord) *models.UsageRecord {
	c := *rec
	c.OccasionCounts = make(map[string]int, len(rec.OccasionCounts))
	for k, v := range rec.OccasionCounts {
		c.OccasionCounts[k] = v
	}
	return &c
}

// bump applies an out-of-band write to a stored record.
func (m *mockUsageRepo) bump(itemID int64) {
	if rec, ok := m.records[itemID]; ok {
		rec.TotalShown++
		rec.Version++
	}
}

func (m *mockUsageRepo) Get(_ context.Context, _ uuid.UUID, itemID int64) (*models.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[itemID]
	if !ok {
		return nil, nil
	}
	return copyRecord(rec), nil
}

func (m *mockUsageRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.UsageRecord
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, copyRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b *models.UsageRecord) int { return int(a.ItemID - b.ItemID) })
	return out, nil
}

func (m *mockUsageRepo) ListByItems(ctx context.Context, userID uuid.UUID, itemIDs []int64) ([]*models.UsageRecord, error) {
	all, _ := m.ListByUser(ctx, userID)
	var out []*models.UsageRecord
	for _, rec := range all {
		if slices.Contains(itemIDs, rec.ItemID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockUsageRepo) Insert(_ context.Context, rec *models.UsageRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeWrite != nil {
		m.beforeWrite(m, rec.ItemID)
	}
	m.writes++
	if _, exists := m.records[rec.ItemID]; exists {
		return false, nil
	}
	rec.Version = 1
	m.records[rec.ItemID] = copyRecord(rec)
	return true, nil
}

func (m *mockUsageRepo) UpdateIfVersion(_ context.Context, rec *models.UsageRecord, expectedVersion int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeWrite != nil {
		m.beforeWrite(m, rec.ItemID)
	}
	m.writes++
	stored, ok := m.records[rec.ItemID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	rec.Version = expectedVersion + 1
	m.records[rec.ItemID] = copyRecord(rec)
	return true, nil
}

func (m *mockUsageRepo) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.records {
		if rec.UserID == userID {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *mockUsageRepo) shown(itemID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[itemID]; ok {
		return rec.TotalShown
	}
	return 0
}

// mockHistoryRepo implements repositories.OutfitHistoryRepository for testing.
type mockHistoryRepo struct {
	mu        sync.Mutex
	entries   []*models.OutfitHistoryEntry
	appendErr error
}

func (m *mockHistoryRepo) Append(_ context.Context, entry *models.OutfitHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

// newestFirst mirrors ORDER BY shown_at DESC, seq DESC.
func (m *mockHistoryRepo) newestFirst(keep func(e *models.OutfitHistoryEntry) bool) []*models.OutfitHistoryEntry {
	var out []*models.OutfitHistoryEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if keep(m.entries[i]) {
			out = append(out, m.entries[i])
		}
	}
	slices.SortStableFunc(out, func(a, b *models.OutfitHistoryEntry) int { return b.ShownAt.Compare(a.ShownAt) })
	return out
}

func (m *mockHistoryRepo) ListSince(_ context.Context, userID uuid.UUID, since time.Time, limit int) ([]*models.OutfitHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.newestFirst(func(e *models.OutfitHistoryEntry) bool {
		return e.UserID == userID && !e.ShownAt.Before(since)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockHistoryRepo) ListFavorited(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.OutfitHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.newestFirst(func(e *models.OutfitHistoryEntry) bool {
		return e.UserID == userID && e.Favorited
	})
	out = out[min(offset, len(out)):]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockHistoryRepo) ClearFavorite(_ context.Context, userID, entryID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.ID == entryID && e.Favorited {
			e.Favorited = false
			return true, nil
		}
	}
	return false, nil
}

func (m *mockHistoryRepo) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.entries)
	m.entries = slices.DeleteFunc(m.entries, func(e *models.OutfitHistoryEntry) bool { return e.UserID == userID })
	return int64(before - len(m.entries)), nil
}

// mockTransactor implements database.Transactor over the in-memory repos.
// A failed unit of work restores the state captured when it began.
type mockTransactor struct {
	usage   *mockUsageRepo
	history *mockHistoryRepo
	commits int
	aborts  int
}

func newMockTransactor(usage *mockUsageRepo, history *mockHistoryRepo) *mockTransactor {
	return &mockTransactor{usage: usage, history: history}
}

func (m *mockTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.usage.mu.Lock()
	records := make(map[int64]*models.UsageRecord, len(m.usage.records))
	for id, rec := range m.usage.records {
		records[id] = copyRecord(rec)
	}
	m.usage.mu.Unlock()

	m.history.mu.Lock()
	entries := slices.Clone(m.history.entries)
	m.history.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.usage.mu.Lock()
		m.usage.records = records
		m.usage.mu.Unlock()
		m.history.mu.Lock()
		m.history.entries = entries
		m.history.mu.Unlock()
		m.aborts++
		return err
	}
	m.commits++
	return nil
}

// mockOracle implements SuggestionOracle for testing.
type mockOracle struct {
	result *OracleResult
	err    error
	inputs []prompts.OutfitPromptInput
}

func (m *mockOracle) Suggest(_ context.Context, in prompts.OutfitPromptInput) (*OracleResult, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func candidates(idSets ...[]int64) *OracleResult {
	result := &OracleResult{}
	for i, ids := range idSets {
		result.Candidates = append(result.Candidates, models.OutfitCandidate{
			Name:    "Outfit " + string(rune('A'+i)),
			ItemIDs: ids,
		})
	}
	return result
}

// mockAnalyticsCache implements cache.AnalyticsCache for testing.
type mockAnalyticsCache struct {
	stored        map[uuid.UUID]*models.WardrobeAnalytics
	invalidations int
	gets          int
}

func newMockAnalyticsCache() *mockAnalyticsCache {
	return &mockAnalyticsCache{stored: map[uuid.UUID]*models.WardrobeAnalytics{}}
}

func (m *mockAnalyticsCache) Get(_ context.Context, userID uuid.UUID) (*models.WardrobeAnalytics, bool, error) {
	m.gets++
	a, ok := m.stored[userID]
	return a, ok, nil
}

func (m *mockAnalyticsCache) Set(_ context.Context, userID uuid.UUID, analytics *models.WardrobeAnalytics) error {
	m.stored[userID] = analytics
	return nil
}

func (m *mockAnalyticsCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	m.invalidations++
	delete(m.stored, userID)
	return nil
}

var testUserID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")

func wardrobeItem(id int64, category, subcategory string, occasions, styles []string) *models.ClothingItem {
	return &models.ClothingItem{
		ID:           id,
		UserID:       testUserID,
		Category:     category,
		Subcategory:  subcategory,
		Color:        "navy",
		OccasionTags: occasions,
		StyleTags:    styles,
	}
}
