// wardrobe-engine composes, scores and records outfits for a user's wardrobe.
//
// Usage:
//
//	wardrobe-engine [flags] <command>
//
// Commands:
//
//	generate   Suggest ranked outfits and record them in the usage ledger
//	preview    Suggest ranked outfits without recording anything
//	analytics  Print wardrobe usage analytics
//	favorite   Record an outfit (-items) as favorited
//	favorites  List favorited outfits (-limit, -offset)
//	unfavorite Remove a favorite by history entry ID (-entry)
//	dismiss    Record an outfit (-items) as dismissed
//	reset      Delete every usage counter and history entry for the user
//
// Configuration comes from config.yaml when present and environment
// variables otherwise (PG*, REDIS_*, LLM_*, ENGINE_*).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/cache"
	"github.com/ekaya-inc/wardrobe-engine/pkg/config"
	"github.com/ekaya-inc/wardrobe-engine/pkg/database"
	"github.com/ekaya-inc/wardrobe-engine/pkg/llm"
	"github.com/ekaya-inc/wardrobe-engine/pkg/logging"
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/outfit"
	"github.com/ekaya-inc/wardrobe-engine/pkg/repositories"
	"github.com/ekaya-inc/wardrobe-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

type options struct {
	configPath  string
	userID      uuid.UUID
	occasion    string
	season      string
	weather     string
	itemIDs     []int64
	mustInclude []int64
	outfitName  string
	entryID     uuid.UUID
	limit       int
	offset      int
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	user := flag.String("user", "", "User ID (UUID)")
	occasion := flag.String("occasion", models.DefaultOccasion, "Occasion to dress for")
	season := flag.String("season", "", "Season hint")
	weather := flag.String("weather", "", "Weather hint")
	items := flag.String("items", "", "Comma-separated item IDs (pool restriction, or the outfit for favorite/dismiss)")
	must := flag.String("must-include", "", "Comma-separated item IDs every outfit must contain")
	name := flag.String("name", "", "Outfit name for favorite/dismiss")
	entry := flag.String("entry", "", "History entry ID (UUID) for unfavorite")
	limit := flag.Int("limit", 20, "Page size for favorites (0 = all)")
	offset := flag.Int("offset", 0, "Page offset for favorites")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	userID, err := uuid.Parse(*user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -user: %v\n", err)
		os.Exit(2)
	}
	itemIDs, err := parseIDs(*items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -items: %v\n", err)
		os.Exit(2)
	}
	mustInclude, err := parseIDs(*must)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -must-include: %v\n", err)
		os.Exit(2)
	}
	var entryID uuid.UUID
	if *entry != "" {
		if entryID, err = uuid.Parse(*entry); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -entry: %v\n", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		configPath:  *configPath,
		userID:      userID,
		occasion:    *occasion,
		season:      *season,
		weather:     *weather,
		itemIDs:     itemIDs,
		mustInclude: mustInclude,
		outfitName:  *name,
		entryID:     entryID,
		limit:       *limit,
		offset:      *offset,
	}
	if err := run(ctx, command, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", command, logging.SanitizeError(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <generate|preview|analytics|favorite|favorites|unfavorite|dismiss|reset>\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}

func run(ctx context.Context, command string, opts options) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	eng, cleanup, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, release, err := eng.scopes.WithUserScope(ctx, opts.userID)
	if err != nil {
		return err
	}
	defer release()

	var out any
	switch command {
	case "generate", "preview":
		out, err = eng.generation.Generate(ctx, &models.GenerationRequest{
			UserID:      opts.userID,
			Occasion:    opts.occasion,
			Season:      opts.season,
			Weather:     opts.weather,
			ItemIDs:     opts.itemIDs,
			MustInclude: opts.mustInclude,
			Preview:     command == "preview",
		})
	case "analytics":
		out, err = eng.analytics.Get(ctx, opts.userID)
	case "favorite":
		out, err = eng.feedback.Favorite(ctx, opts.userID, opts.itemIDs, opts.occasion, opts.outfitName)
	case "favorites":
		out, err = eng.feedback.ListFavorites(ctx, opts.userID, opts.limit, opts.offset)
	case "unfavorite":
		if opts.entryID == uuid.Nil {
			return fmt.Errorf("unfavorite requires -entry")
		}
		if err = eng.feedback.RemoveFavorite(ctx, opts.userID, opts.entryID); err == nil {
			out = map[string]string{"status": "removed", "entry_id": opts.entryID.String()}
		}
	case "dismiss":
		out, err = eng.feedback.Dismiss(ctx, opts.userID, opts.itemIDs, opts.occasion, opts.outfitName)
	case "reset":
		if err = eng.ledger.ResetUsage(ctx, opts.userID); err == nil {
			out = map[string]string{"status": "reset", "user_id": opts.userID.String()}
		}
		if cacheErr := eng.cache.Invalidate(ctx, opts.userID); cacheErr != nil {
			logger.Warn("Failed to invalidate analytics cache", zap.Error(cacheErr))
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// engine holds the wired services for one invocation.
type engine struct {
	scopes     *database.UserScopeProvider
	ledger     services.UsageLedger
	generation services.OutfitGenerationService
	analytics  services.WardrobeAnalyticsService
	feedback   services.FeedbackService
	cache      cache.AnalyticsCache
}

func newEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*engine, func(), error) {
	connStr := cfg.Database.ConnectionString()
	if err := database.MigrateURL(connStr, logger); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MaxIdleConns,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		db.Close()
	}

	rules := outfit.DefaultRules()
	if cfg.RulesPath != "" {
		if rules, err = outfit.LoadRules(cfg.RulesPath); err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("Loaded outfit rules", zap.String("path", cfg.RulesPath), zap.String("version", rules.Version))
	}

	llmClient, err := llm.NewClientFromConfig(cfg.LLM.ClientConfig(), cfg.LLM.BreakerConfig(), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	analyticsCache := cache.NewAnalyticsCache(redisClient, cfg.Redis.AnalyticsTTL(), logger)

	itemRepo := repositories.NewClothingItemRepository()
	usageRepo := repositories.NewUsageRepository()
	historyRepo := repositories.NewOutfitHistoryRepository()
	profileRepo := repositories.NewStyleProfileRepository()

	ledger := services.NewUsageLedger(usageRepo, historyRepo, database.NewTransactor(), cfg.Engine.LedgerMaxRetries, logger)
	selector := services.NewUnderusedSelector(ledger, services.UnderusedSelectorConfig{
		Percentile: cfg.Engine.UnderusedPercentile,
		Limit:      cfg.Engine.UnderusedLimit,
	}, logger)
	oracle := services.NewLLMSuggestionOracle(llmClient, services.OracleConfig{
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout(),
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger)

	return &engine{
		scopes: database.NewUserScopeProvider(db),
		ledger: ledger,
		generation: services.NewOutfitGenerationService(
			itemRepo, profileRepo, ledger, selector, oracle, analyticsCache,
			rules, cfg.Engine.Scoring,
			services.GenerationConfig{
				MaxSuggestions:    cfg.Engine.MaxSuggestions,
				HistoryWindowDays: cfg.Engine.HistoryWindowDays,
			},
			logger,
		),
		analytics: services.NewWardrobeAnalyticsService(
			itemRepo, usageRepo, ledger, analyticsCache, outfit.NewClassifier(rules),
			services.AnalyticsConfig{
				ActivityDays:  cfg.Engine.HistoryWindowDays,
				DiversityDays: cfg.Engine.AnalyticsWindowDays,
				StaleDays:     cfg.Engine.StaleDays,
			},
			logger,
		),
		feedback: services.NewFeedbackService(itemRepo, historyRepo, ledger, analyticsCache, logger),
		cache:    analyticsCache,
	}, cleanup, nil
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		return config.LoadFromEnv(Version)
	}
	return config.Load(path, Version)
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid item ID %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
