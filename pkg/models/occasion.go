package models

import "strings"

// Occasions is the recognized occasion vocabulary. Usage counters are only
// ever keyed by one of these values.
var Occasions = []string{
	"casual", "work", "business", "formal", "party",
	"date", "athletic", "weekend", "travel", "lounge",
}

// DefaultOccasion is used when a request names an occasion outside the vocabulary.
const DefaultOccasion = "casual"

// IsRecognizedOccasion reports whether occasion is part of the vocabulary.
func IsRecognizedOccasion(occasion string) bool {
	occasion = strings.ToLower(strings.TrimSpace(occasion))
	for _, o := range Occasions {
		if o == occasion {
			return true
		}
	}
	return false
}

// NormalizeOccasion lowercases and trims the occasion and maps unrecognized
// values to DefaultOccasion.
func NormalizeOccasion(occasion string) string {
	occasion = strings.ToLower(strings.TrimSpace(occasion))
	if IsRecognizedOccasion(occasion) {
		return occasion
	}
	return DefaultOccasion
}
