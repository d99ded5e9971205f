package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/apperrors"
	"github.com/ekaya-inc/wardrobe-engine/pkg/cache"
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/outfit"
	"github.com/ekaya-inc/wardrobe-engine/pkg/prompts"
	"github.com/ekaya-inc/wardrobe-engine/pkg/repositories"
)

// DefaultMaxSuggestions is how many outfits a generation returns.
const DefaultMaxSuggestions = 3

// DefaultHistoryWindowDays is how far back recent combinations are read.
const DefaultHistoryWindowDays = 7

const ledgerNotRecordedMessage = "outfits were not recorded in the usage ledger; rotation will not reflect this suggestion"

// GenerationConfig tunes outfit generation.
type GenerationConfig struct {
	MaxSuggestions    int
	HistoryWindowDays int
}

// OutfitGenerationService runs the suggest, validate, score and commit cycle.
type OutfitGenerationService interface {
	// Generate returns ranked outfits for the request. Oracle failures and
	// empty results are reported through the result status, not as errors.
	Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error)
}

type outfitGenerationService struct {
	itemRepo    repositories.ClothingItemRepository
	profileRepo repositories.StyleProfileRepository
	ledger      UsageLedger
	selector    UnderusedSelector
	oracle      SuggestionOracle
	cache       cache.AnalyticsCache
	rules       *outfit.Rules
	classifier  *outfit.Classifier
	validator   *outfit.Validator
	scorer      *outfit.Scorer
	cfg         GenerationConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewOutfitGenerationService creates a new outfit generation service.
// A nil rules value uses outfit.DefaultRules and a nil analytics cache
// disables invalidation.
func NewOutfitGenerationService(
	itemRepo repositories.ClothingItemRepository,
	profileRepo repositories.StyleProfileRepository,
	ledger UsageLedger,
	selector UnderusedSelector,
	oracle SuggestionOracle,
	analyticsCache cache.AnalyticsCache,
	rules *outfit.Rules,
	scoring outfit.ScoringConfig,
	cfg GenerationConfig,
	logger *zap.Logger,
) OutfitGenerationService {
	if rules == nil {
		rules = outfit.DefaultRules()
	}
	if analyticsCache == nil {
		analyticsCache = cache.NoopAnalyticsCache{}
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultMaxSuggestions
	}
	if cfg.HistoryWindowDays <= 0 {
		cfg.HistoryWindowDays = DefaultHistoryWindowDays
	}

	classifier := outfit.NewClassifier(rules)
	return &outfitGenerationService{
		itemRepo:    itemRepo,
		profileRepo: profileRepo,
		ledger:      ledger,
		selector:    selector,
		oracle:      oracle,
		cache:       analyticsCache,
		rules:       rules,
		classifier:  classifier,
		validator:   outfit.NewValidator(classifier),
		scorer:      outfit.NewScorer(scoring),
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.Named("outfit-generation"),
	}
}

var _ OutfitGenerationService = (*outfitGenerationService)(nil)

func (s *outfitGenerationService) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	if req == nil || req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", apperrors.ErrInvalidRequest)
	}
	occasion := strings.ToLower(strings.TrimSpace(req.Occasion))
	if occasion == "" {
		return nil, fmt.Errorf("%w: occasion is required", apperrors.ErrInvalidRequest)
	}

	result := &models.GenerationResult{
		Occasion:   occasion,
		Candidates: []*models.ScoredCandidate{},
		Preview:    req.Preview,
	}

	items, err := s.loadItems(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return unableToGenerate(result, "no wardrobe items available"), nil
	}

	owned := make(map[int64]*models.ClothingItem, len(items))
	for _, item := range items {
		owned[item.ID] = item
	}
	for _, id := range req.MustInclude {
		if _, ok := owned[id]; !ok {
			return nil, fmt.Errorf("%w: must-include item %d is not in the wardrobe", apperrors.ErrInvalidRequest, id)
		}
	}

	profile, err := s.profileRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load style profile: %w", err)
	}

	pool := s.candidatePool(items, owned, occasion, profile, req.MustInclude)
	if len(pool) == 0 {
		return unableToGenerate(result, "no items suit this occasion and style profile"), nil
	}

	underused, err := s.selector.Select(ctx, req.UserID, items)
	if err != nil {
		return nil, err
	}
	recent, err := s.ledger.QueryRecentCombinations(ctx, req.UserID, s.cfg.HistoryWindowDays)
	if err != nil {
		return nil, err
	}

	poolByID := make(map[int64]*models.ClothingItem, len(pool))
	for _, item := range pool {
		poolByID[item.ID] = item
	}

	oracleResult, err := s.oracle.Suggest(ctx, prompts.OutfitPromptInput{
		Occasion:       occasion,
		Season:         req.Season,
		Weather:        req.Weather,
		Items:          s.orderBySlot(pool),
		MustInclude:    req.MustInclude,
		Underused:      hintsInPool(underused.Hints, poolByID),
		Recent:         recent,
		Profile:        profile,
		MaxSuggestions: s.cfg.MaxSuggestions,
	})
	if err != nil {
		if IsOracleFailure(err) {
			result.Status = models.GenerationStatusOracleUnavailable
			result.Message = err.Error()
			return result, nil
		}
		return nil, err
	}
	result.Salvage = oracleResult.Salvaged

	scored, dropped := s.scoreCandidates(oracleResult.Candidates, poolByID, occasion, underused.Scoring, recent, req.MustInclude)
	result.Dropped = dropped
	if len(scored) == 0 {
		s.logger.Info("No valid outfit candidates",
			zap.String("user_id", req.UserID.String()),
			zap.String("occasion", occasion),
			zap.Int("proposed", len(oracleResult.Candidates)),
			zap.Int("dropped", dropped))
		return unableToGenerate(result, apperrors.ErrNoValidCandidates.Error()), nil
	}

	outfit.Rank(scored)
	if len(scored) > s.cfg.MaxSuggestions {
		scored = scored[:s.cfg.MaxSuggestions]
	}
	result.Candidates = scored
	result.Status = models.GenerationStatusOK

	if !req.Preview {
		s.commit(ctx, req.UserID, occasion, result)
	}

	s.logger.Info("Generated outfits",
		zap.String("user_id", req.UserID.String()),
		zap.String("occasion", occasion),
		zap.Int("returned", len(scored)),
		zap.Int("dropped", dropped),
		zap.Bool("preview", req.Preview),
		zap.Bool("recorded", result.Recorded))

	return result, nil
}

func (s *outfitGenerationService) loadItems(ctx context.Context, req *models.GenerationRequest) ([]*models.ClothingItem, error) {
	var (
		items []*models.ClothingItem
		err   error
	)
	if len(req.ItemIDs) > 0 {
		items, err = s.itemRepo.ListByIDs(ctx, req.UserID, dedupeIDs(req.ItemIDs))
	} else {
		items, err = s.itemRepo.ListByUser(ctx, req.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe items: %w", err)
	}
	return items, nil
}

// candidatePool filters items for the occasion and profile. Forced items
// always stay in the pool.
func (s *outfitGenerationService) candidatePool(
	items []*models.ClothingItem,
	owned map[int64]*models.ClothingItem,
	occasion string,
	profile *models.StyleProfile,
	mustInclude []int64,
) []*models.ClothingItem {
	pool := outfit.FilterCandidates(items, occasion, profile, s.rules)
	if len(mustInclude) == 0 {
		return pool
	}

	inPool := make(map[int64]bool, len(pool))
	for _, item := range pool {
		inPool[item.ID] = true
	}
	for _, id := range mustInclude {
		if !inPool[id] {
			pool = append(pool, owned[id])
			inPool[id] = true
		}
	}
	return pool
}

// orderBySlot groups the pool by slot so the prompt lists tops, bottoms
// and shoes together.
func (s *outfitGenerationService) orderBySlot(pool []*models.ClothingItem) []*models.ClothingItem {
	bySlot := s.classifier.OrganizeBySlot(pool)
	ordered := make([]*models.ClothingItem, 0, len(pool))
	for _, slot := range []models.Slot{models.SlotBaseTop, models.SlotLayer, models.SlotBottom, models.SlotShoes, models.SlotAccessory} {
		ordered = append(ordered, bySlot[slot]...)
	}
	return ordered
}

func hintsInPool(hints []*models.ClothingItem, poolByID map[int64]*models.ClothingItem) []*models.ClothingItem {
	out := make([]*models.ClothingItem, 0, len(hints))
	for _, item := range hints {
		if item == nil {
			continue
		}
		if _, ok := poolByID[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}

// scoreCandidates resolves, validates and scores oracle candidates.
// Unknown IDs are removed, duplicate combinations are kept once, and
// structurally invalid candidates are counted as dropped.
func (s *outfitGenerationService) scoreCandidates(
	candidates []models.OutfitCandidate,
	poolByID map[int64]*models.ClothingItem,
	occasion string,
	underused *UnderusedSet,
	recent []models.ItemSet,
	mustInclude []int64,
) ([]*models.ScoredCandidate, int) {
	seen := make(map[string]bool, len(candidates))
	scored := make([]*models.ScoredCandidate, 0, len(candidates))
	dropped := 0

	for _, candidate := range candidates {
		ids := dedupeIDs(candidate.ItemIDs)
		items := make([]*models.ClothingItem, 0, len(ids))
		resolved := make([]int64, 0, len(ids))
		for _, id := range ids {
			item, ok := poolByID[id]
			if !ok {
				s.logger.Debug("Dropping unknown item from candidate",
					zap.String("outfit_name", candidate.Name),
					zap.Int64("item_id", id))
				continue
			}
			items = append(items, item)
			resolved = append(resolved, id)
		}

		key := combinationKey(resolved)
		if seen[key] {
			continue
		}
		seen[key] = true

		validation := s.validator.Validate(items)
		if !validation.Valid {
			dropped++
			s.logger.Debug("Dropping structurally invalid candidate",
				zap.String("outfit_name", candidate.Name),
				zap.Int64s("item_ids", resolved),
				zap.String("reason", validation.Reason))
			continue
		}

		breakdown := s.scorer.Score(outfit.ScoreInput{
			Items:       items,
			Occasion:    occasion,
			Underused:   underused.Set(),
			Recent:      recent,
			MustInclude: mustInclude,
		})

		candidate.ItemIDs = resolved
		scored = append(scored, &models.ScoredCandidate{
			OutfitCandidate: candidate,
			Items:           items,
			Slots:           validation.Slots,
			Score:           breakdown.Total,
			Breakdown:       breakdown,
			Advisory:        validation.Advisory,
		})
	}
	return scored, dropped
}

// commit records the returned outfits in the usage ledger as one
// transaction. Counter conflicts that outlast the retry budget are logged and
// skipped. Any other failure leaves the ledger untouched and is reported on
// the result, which still carries the ranked outfits.
func (s *outfitGenerationService) commit(ctx context.Context, userID uuid.UUID, occasion string, result *models.GenerationResult) {
	shownAt := s.now()
	entries := make([]*models.OutfitHistoryEntry, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		entries = append(entries, &models.OutfitHistoryEntry{
			UserID:     userID,
			ItemIDs:    candidate.ItemIDs,
			Occasion:   occasion,
			OutfitName: candidate.Name,
			ShownAt:    shownAt,
		})
	}

	err := s.ledger.RecordOutfits(ctx, entries)
	switch {
	case err == nil:
		result.Recorded = true
	case errors.Is(err, apperrors.ErrLedgerWriteConflict):
		result.Recorded = true
		s.logger.Warn("Usage ledger conflict, counters not updated",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	default:
		result.Message = ledgerNotRecordedMessage
		s.logger.Warn("Usage ledger commit failed, outfits not recorded",
			zap.String("user_id", userID.String()),
			zap.Int("outfits", len(entries)),
			zap.Error(err))
		return
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate analytics cache",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

func unableToGenerate(result *models.GenerationResult, message string) *models.GenerationResult {
	result.Status = models.GenerationStatusUnableToGenerate
	result.Message = message
	return result
}

// combinationKey identifies an item set independent of order.
func combinationKey(ids []int64) string {
	return fmt.Sprint(models.NewItemSet(ids...).Sorted())
}
