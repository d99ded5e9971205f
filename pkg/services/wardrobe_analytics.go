package services

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/cache"
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/outfit"
	"github.com/ekaya-inc/wardrobe-engine/pkg/repositories"
)

const (
	overuseFactor     = 2.0
	overuseAlertLimit = 5
)

// AnalyticsConfig sets the windows, in days, used by wardrobe analytics.
type AnalyticsConfig struct {
	ActivityDays  int
	DiversityDays int
	StaleDays     int
}

// DefaultAnalyticsConfig returns the standard windows.
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{ActivityDays: 7, DiversityDays: 30, StaleDays: 30}
}

// WardrobeAnalyticsService reports how evenly a wardrobe is being used.
type WardrobeAnalyticsService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.WardrobeAnalytics, error)
}

type wardrobeAnalyticsService struct {
	itemRepo   repositories.ClothingItemRepository
	usageRepo  repositories.UsageRepository
	ledger     UsageLedger
	cache      cache.AnalyticsCache
	classifier *outfit.Classifier
	cfg        AnalyticsConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewWardrobeAnalyticsService creates a new analytics service.
func NewWardrobeAnalyticsService(
	itemRepo repositories.ClothingItemRepository,
	usageRepo repositories.UsageRepository,
	ledger UsageLedger,
	analyticsCache cache.AnalyticsCache,
	classifier *outfit.Classifier,
	cfg AnalyticsConfig,
	logger *zap.Logger,
) WardrobeAnalyticsService {
	defaults := DefaultAnalyticsConfig()
	if cfg.ActivityDays <= 0 {
		cfg.ActivityDays = defaults.ActivityDays
	}
	if cfg.DiversityDays <= 0 {
		cfg.DiversityDays = defaults.DiversityDays
	}
	if cfg.StaleDays <= 0 {
		cfg.StaleDays = defaults.StaleDays
	}
	if analyticsCache == nil {
		analyticsCache = cache.NoopAnalyticsCache{}
	}
	if classifier == nil {
		classifier = outfit.NewClassifier(nil)
	}
	return &wardrobeAnalyticsService{
		itemRepo:   itemRepo,
		usageRepo:  usageRepo,
		ledger:     ledger,
		cache:      analyticsCache,
		classifier: classifier,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.Named("wardrobe-analytics"),
	}
}

var _ WardrobeAnalyticsService = (*wardrobeAnalyticsService)(nil)

func (s *wardrobeAnalyticsService) Get(ctx context.Context, userID uuid.UUID) (*models.WardrobeAnalytics, error) {
	if cached, ok, err := s.cache.Get(ctx, userID); err != nil {
		s.logger.Warn("Analytics cache read failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	} else if ok {
		return cached, nil
	}

	items, err := s.itemRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.usageRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.ledger.QueryRecentCombinations(ctx, userID, s.cfg.DiversityDays)
	if err != nil {
		return nil, err
	}

	analytics := s.compute(items, records, recent)

	if err := s.cache.Set(ctx, userID, analytics); err != nil {
		s.logger.Warn("Analytics cache write failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
	return analytics, nil
}

func (s *wardrobeAnalyticsService) compute(items []*models.ClothingItem, records []*models.UsageRecord, recent []models.ItemSet) *models.WardrobeAnalytics {
	analytics := &models.WardrobeAnalytics{
		TotalItems:    len(items),
		OveruseAlerts: []models.OveruseAlert{},
		SlotCounts:    map[models.Slot]int{},
	}
	if len(items) == 0 {
		return analytics
	}

	for slot, slotItems := range s.classifier.OrganizeBySlot(items) {
		analytics.SlotCounts[slot] = len(slotItems)
	}

	now := s.now()
	activityCutoff := now.Add(-days(s.cfg.ActivityDays))
	staleCutoff := now.Add(-days(s.cfg.StaleDays))

	owned := make(map[int64]bool, len(items))
	for _, item := range items {
		owned[item.ID] = true
	}
	byItem := make(map[int64]*models.UsageRecord, len(records))
	totalShown := 0
	for _, rec := range records {
		if !owned[rec.ItemID] {
			continue
		}
		byItem[rec.ItemID] = rec
		totalShown += rec.TotalShown
		if rec.LastShownAt != nil && !rec.LastShownAt.Before(activityCutoff) {
			analytics.UsageHeatmap.UsedLastWeek++
		}
	}
	analytics.UsageHeatmap.Percentage = roundTo(float64(analytics.UsageHeatmap.UsedLastWeek)/float64(len(items))*100, 1)

	for _, item := range items {
		rec := byItem[item.ID]
		if rec == nil || rec.LastShownAt == nil || rec.LastShownAt.Before(staleCutoff) {
			analytics.StalenessCount++
		}
	}

	average := float64(totalShown) / float64(len(items))
	threshold := average * overuseFactor
	if threshold > 0 {
		for _, item := range items {
			rec := byItem[item.ID]
			if rec == nil || float64(rec.TotalShown) <= threshold {
				continue
			}
			analytics.OveruseAlerts = append(analytics.OveruseAlerts, models.OveruseAlert{
				ItemID:           item.ID,
				Category:         item.Category,
				Brand:            item.Brand,
				UsageCount:       rec.TotalShown,
				TimesOverAverage: roundTo(float64(rec.TotalShown)/average, 1),
			})
		}
		slices.SortStableFunc(analytics.OveruseAlerts, func(a, b models.OveruseAlert) int {
			return b.UsageCount - a.UsageCount
		})
		if len(analytics.OveruseAlerts) > overuseAlertLimit {
			analytics.OveruseAlerts = analytics.OveruseAlerts[:overuseAlertLimit]
		}
	}

	analytics.DiversityIndex = diversityIndex(len(items), recent)
	return analytics
}

// diversityIndex is the share of possible item pairs that appeared together
// in recent combinations, as a percentage with two decimals.
func diversityIndex(totalItems int, recent []models.ItemSet) float64 {
	possible := float64(totalItems*(totalItems-1)) / 2
	if possible <= 0 {
		return 0
	}

	pairs := make(map[[2]int64]struct{})
	for _, combo := range recent {
		ids := combo.Sorted()
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pairs[[2]int64{ids[i], ids[j]}] = struct{}{}
			}
		}
	}
	return roundTo(float64(len(pairs))/possible*100, 2)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
