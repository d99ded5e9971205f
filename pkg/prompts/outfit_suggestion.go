package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/wardrobe-engine/pkg/models"
)

// RecentCombinationLimit is how many recent outfits are shown to the oracle.
const RecentCombinationLimit = 5

// OutfitSuggestionSystemMessage frames the oracle as a stylist that only
// answers in JSON.
const OutfitSuggestionSystemMessage = "You are a personal stylist. You compose outfits strictly from the wardrobe items you are given and reply with JSON only."

// OutfitPromptInput is everything the suggestion prompt is built from.
type OutfitPromptInput struct {
	Occasion       string
	Season         string
	Weather        string
	Items          []*models.ClothingItem
	MustInclude    []int64
	Underused      []*models.ClothingItem
	Recent         []models.ItemSet
	Profile        *models.StyleProfile
	MaxSuggestions int
}

// BuildOutfitSuggestionPrompt renders the prompt asking the oracle for
// outfit combinations drawn from in.Items.
func BuildOutfitSuggestionPrompt(in OutfitPromptInput) string {
	var prompt strings.Builder

	prompt.WriteString("Based on these available clothing items:\n")
	for _, item := range in.Items {
		prompt.WriteString(FormatItemLine(item))
		prompt.WriteString("\n")
	}

	n := in.MaxSuggestions
	if n <= 0 {
		n = 3
	}

	prompt.WriteString(fmt.Sprintf("\nFor a %s occasion", in.Occasion))
	if in.Season != "" {
		prompt.WriteString(fmt.Sprintf(" in %s", in.Season))
	}
	if in.Weather != "" {
		prompt.WriteString(fmt.Sprintf(" during %s weather", in.Weather))
	}
	prompt.WriteString(fmt.Sprintf(", suggest %d outfit combinations.\n", n))

	prompt.WriteString("\n## Outfit rules\n")
	prompt.WriteString("- Every outfit needs a top (base top or layer), a bottom, and shoes.\n")
	prompt.WriteString("- At most one item per slot, except accessories (up to 2).\n")
	prompt.WriteString("- Only use item IDs from the list above.\n")

	if len(in.MustInclude) > 0 {
		prompt.WriteString(fmt.Sprintf("- Every outfit MUST include item IDs: %s\n", joinIDs(in.MustInclude)))
	}

	if p := in.Profile; p != nil {
		if len(p.PreferredStyles) > 0 {
			prompt.WriteString(fmt.Sprintf("- Preferred styles: %s\n", strings.Join(p.PreferredStyles, ", ")))
		}
		if len(p.PreferredColors) > 0 {
			prompt.WriteString(fmt.Sprintf("- Favourite colors: %s\n", strings.Join(p.PreferredColors, ", ")))
		}
		if p.Notes != "" {
			prompt.WriteString(fmt.Sprintf("- Notes from the wearer: %s\n", p.Notes))
		}
	}

	if len(in.Underused) > 0 {
		prompt.WriteString("\n## Rarely worn items (prefer these when they fit)\n")
		for _, item := range in.Underused {
			prompt.WriteString(FormatItemLine(item))
			prompt.WriteString("\n")
		}
	}

	if recent := FormatRecentCombinations(in.Recent); recent != "" {
		prompt.WriteString("\n## Recently suggested combinations (avoid repeating these)\n")
		prompt.WriteString(recent)
		prompt.WriteString("\n")
	}

	prompt.WriteString(`
IMPORTANT: Return ONLY a valid JSON array. NO markdown code blocks, NO extra text, NO explanations.

Each outfit object MUST have exactly these fields:
{"outfit_name": "string", "description": "string", "item_ids": [integer, integer], "styling_tips": "string"}

RESPONSE MUST START WITH [ AND END WITH ]. NO OTHER TEXT.`)

	return prompt.String()
}

// FormatItemLine renders one wardrobe item as a prompt bullet.
func FormatItemLine(item *models.ClothingItem) string {
	var line strings.Builder

	line.WriteString(fmt.Sprintf("- ID %d: %s", item.ID, item.Category))
	if item.Subcategory != "" {
		line.WriteString("/" + item.Subcategory)
	}

	var attrs []string
	if item.Color != "" {
		attrs = append(attrs, item.Color)
	}
	if item.Pattern != "" {
		attrs = append(attrs, item.Pattern)
	}
	if item.Brand != "" {
		attrs = append(attrs, item.Brand)
	}
	if len(attrs) > 0 {
		line.WriteString(" (" + strings.Join(attrs, ", ") + ")")
	}

	if len(item.StyleTags) > 0 {
		line.WriteString(" style: " + strings.Join(item.StyleTags, ", "))
	}
	if item.Description != "" {
		line.WriteString(" - " + item.Description)
	}
	return line.String()
}

// FormatRecentCombinations renders the most recent combinations as
// "[1, 2, 3], [4, 5]" with ids sorted inside each group. Returns "" when
// there is no history.
func FormatRecentCombinations(recent []models.ItemSet) string {
	if len(recent) == 0 {
		return ""
	}
	if len(recent) > RecentCombinationLimit {
		recent = recent[:RecentCombinationLimit]
	}

	groups := make([]string, 0, len(recent))
	for _, combo := range recent {
		groups = append(groups, "["+joinIDs(combo.Sorted())+"]")
	}
	return strings.Join(groups, ", ")
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
