package outfit

import (
	"strings"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// FilterCandidates narrows an item pool for an occasion and style profile.
//
// An item passes the occasion check when it has no occasion tags, when its
// tags contain the occasion, when it carries a broad tag, or when the
// occasion and one of its tags fall in the same synonym group. If no item
// passes, the occasion check is skipped: an imperfect pool beats an empty one.
// Items whose color or pattern contains a term the profile avoids are then
// removed. Input order is preserved.
func FilterCandidates(items []*models.ClothingItem, occasion string, profile *models.StyleProfile, rules *Rules) []*models.ClothingItem {
	if rules == nil {
		rules = DefaultRules()
	}

	pool := FilterByOccasion(items, occasion, rules)
	if profile == nil {
		return pool
	}

	avoidColors := normalizeTerms(profile.AvoidColors)
	avoidPatterns := normalizeTerms(profile.AvoidPatterns)
	if len(avoidColors) == 0 && len(avoidPatterns) == 0 {
		return pool
	}

	filtered := make([]*models.ClothingItem, 0, len(pool))
	for _, item := range pool {
		if hasAvoidedColor(item, avoidColors) {
			continue
		}
		if containsAny(strings.ToLower(item.Pattern), avoidPatterns) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// FilterByOccasion applies only the occasion inclusion rule, including the
// fall back to the full pool.
func FilterByOccasion(items []*models.ClothingItem, occasion string, rules *Rules) []*models.ClothingItem {
	if rules == nil {
		rules = DefaultRules()
	}
	occasion = strings.ToLower(strings.TrimSpace(occasion))
	synonymTags := synonymTagsFor(occasion, rules)

	filtered := make([]*models.ClothingItem, 0, len(items))
	for _, item := range items {
		tags := TagText(item.OccasionTags)
		switch {
		case tags == "":
			filtered = append(filtered, item)
		case strings.Contains(tags, occasion), containsAny(tags, rules.BroadOccasionTags):
			filtered = append(filtered, item)
		case containsAny(tags, synonymTags):
			filtered = append(filtered, item)
		}
	}

	if len(filtered) == 0 {
		return items
	}
	return filtered
}

// TagText lowercases and comma-joins tags so substring rules see one string.
func TagText(tags []string) string {
	return strings.ToLower(strings.Join(tags, ","))
}

func synonymTagsFor(occasion string, rules *Rules) []string {
	var tags []string
	for _, group := range rules.OccasionSynonyms {
		for _, o := range group.Occasions {
			if o == occasion {
				tags = append(tags, group.Tags...)
				break
			}
		}
	}
	return tags
}

func hasAvoidedColor(item *models.ClothingItem, avoid []string) bool {
	if containsAny(strings.ToLower(item.Color), avoid) {
		return true
	}
	for _, c := range item.SecondaryColors {
		if containsAny(strings.ToLower(c), avoid) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
