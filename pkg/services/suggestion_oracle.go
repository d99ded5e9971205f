package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/wardrobe-engine/pkg/apperrors"
	"github.com/ekaya-inc/wardrobe-engine/pkg/jsonutil"
	"github.com/ekaya-inc/wardrobe-engine/pkg/llm"
	"github.com/ekaya-inc/wardrobe-engine/pkg/logging"
	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
	"github.com/ekaya-inc/wardrobe-engine/pkg/prompts"
	"github.com/ekaya-inc/wardrobe-engine/pkg/retry"
)

// OracleResult is the parsed response of one oracle call.
type OracleResult struct {
	Candidates []models.OutfitCandidate
	// Salvaged is set when the response was not a well-formed list and the
	// candidates were recovered object by object.
	Salvaged bool
	// SkippedIDs counts item identifiers that could not be parsed.
	SkippedIDs int
}

// SuggestionOracle proposes outfit candidates. Its output is untrusted:
// every candidate still has to be resolved and validated.
type SuggestionOracle interface {
	Suggest(ctx context.Context, in prompts.OutfitPromptInput) (*OracleResult, error)
}

// OracleConfig tunes oracle calls.
type OracleConfig struct {
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

type llmSuggestionOracle struct {
	client llm.LLMClient
	cfg    OracleConfig
	logger *zap.Logger
}

// NewLLMSuggestionOracle creates an oracle backed by an LLM client.
func NewLLMSuggestionOracle(client llm.LLMClient, cfg OracleConfig, logger *zap.Logger) SuggestionOracle {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &llmSuggestionOracle{
		client: client,
		cfg:    cfg,
		logger: logger.Named("suggestion-oracle"),
	}
}

var _ SuggestionOracle = (*llmSuggestionOracle)(nil)

func (o *llmSuggestionOracle) Suggest(ctx context.Context, in prompts.OutfitPromptInput) (*OracleResult, error) {
	prompt := prompts.BuildOutfitSuggestionPrompt(in)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = o.cfg.MaxRetries

	var (
		content   string
		truncated bool
	)
	err := retry.DoIfRetryable(ctx, retryCfg, func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()

		result, err := o.client.GenerateResponse(callCtx, prompt, prompts.OutfitSuggestionSystemMessage, o.cfg.Temperature)
		if err != nil {
			return err
		}
		content = result.Content
		truncated = result.Truncated
		return nil
	})
	if err != nil {
		o.logger.Error("Suggestion oracle call failed",
			zap.String("model", o.client.GetModel()),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrOracleUnavailable, err)
	}

	if truncated {
		o.logger.Warn("Suggestion oracle response hit the token limit",
			zap.String("model", o.client.GetModel()),
			zap.Int("response_length", len(content)))
	}

	result, err := ParseOracleResponse(content)
	if err != nil {
		o.logger.Warn("Suggestion oracle returned unusable output",
			zap.String("model", o.client.GetModel()),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logging.ResponsePreview(content)),
			zap.Error(err))
		return nil, err
	}

	if result.Salvaged || result.SkippedIDs > 0 {
		o.logger.Warn("Suggestion oracle output needed repair",
			zap.Bool("salvaged", result.Salvaged),
			zap.Int("skipped_ids", result.SkippedIDs),
			zap.Int("candidates", len(result.Candidates)))
	}
	return result, nil
}

// rawCandidate mirrors the oracle's JSON with lenient ID handling.
type rawCandidate struct {
	Name        json.RawMessage `json:"outfit_name"`
	Description json.RawMessage `json:"description"`
	ItemIDs     json.RawMessage `json:"item_ids"`
	StylingTip  json.RawMessage `json:"styling_tips"`
}

// ParseOracleResponse turns oracle text into candidates. A JSON array of
// outfit objects is the expected shape; an object wrapping such an array or
// a single outfit object is accepted too. When none of those parse, every
// well-formed outfit object found in the text is salvaged. Returns
// apperrors.ErrMalformedOracleOutput when nothing usable remains.
func ParseOracleResponse(content string) (*OracleResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty response", apperrors.ErrMalformedOracleOutput)
	}

	if jsonStr, err := llm.ExtractJSON(content); err == nil {
		if raws, ok := candidateList(json.RawMessage(jsonStr)); ok {
			result := convertCandidates(raws)
			if len(result.Candidates) > 0 {
				return result, nil
			}
		}
	}

	var raws []rawCandidate
	for _, obj := range llm.ExtractObjects(content) {
		if raw, ok := decodeCandidate(json.RawMessage(obj)); ok {
			raws = append(raws, raw)
		}
	}
	result := convertCandidates(raws)
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no outfit objects could be recovered", apperrors.ErrMalformedOracleOutput)
	}
	result.Salvaged = true
	return result, nil
}

// candidateList interprets a JSON value as a list of outfit objects.
func candidateList(raw json.RawMessage) ([]rawCandidate, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err == nil {
		var raws []rawCandidate
		for _, elem := range elems {
			if c, ok := decodeCandidate(elem); ok {
				raws = append(raws, c)
			}
		}
		return raws, true
	}

	if c, ok := decodeCandidate(raw); ok {
		return []rawCandidate{c}, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range []string{"outfits", "suggestions", "combinations"} {
		if inner, ok := wrapper[key]; ok {
			return candidateList(inner)
		}
	}
	return nil, false
}

// decodeCandidate accepts objects that carry an item_ids field.
func decodeCandidate(raw json.RawMessage) (rawCandidate, bool) {
	var c rawCandidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, false
	}
	return c, len(c.ItemIDs) > 0
}

func convertCandidates(raws []rawCandidate) *OracleResult {
	result := &OracleResult{Candidates: make([]models.OutfitCandidate, 0, len(raws))}
	for _, raw := range raws {
		ids, skipped, err := jsonutil.FlexibleIDs(raw.ItemIDs)
		result.SkippedIDs += skipped
		if err != nil || len(ids) == 0 {
			continue
		}
		result.Candidates = append(result.Candidates, models.OutfitCandidate{
			Name:        optionalString(raw.Name),
			Description: optionalString(raw.Description),
			ItemIDs:     ids,
			StylingTip:  optionalString(raw.StylingTip),
		})
	}
	return result
}

func optionalString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return jsonutil.FlexibleStringValue(raw)
}

// IsOracleFailure reports whether err means no candidates could be obtained
// from the oracle at all.
func IsOracleFailure(err error) bool {
	return errors.Is(err, apperrors.ErrOracleUnavailable) || errors.Is(err, apperrors.ErrMalformedOracleOutput)
}
