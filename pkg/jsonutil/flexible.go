package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleInt64 parses an item identifier that may arrive as a JSON number,
// a numeric string ("12"), or a string with a leading '#' ("#12").
func FlexibleInt64(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(FlexibleStringValue(raw))
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return 0, fmt.Errorf("empty identifier")
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("identifier %q is not an integer", s)
		}
		id = int64(f)
	}
	return id, nil
}

// FlexibleIDs parses a list of identifiers. A single scalar is accepted as a
// one-element list. Entries that cannot be parsed are skipped and counted.
func FlexibleIDs(raw json.RawMessage) (ids []int64, skipped int, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, 0, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		id, scalarErr := FlexibleInt64(raw)
		if scalarErr != nil {
			return nil, 0, fmt.Errorf("failed to parse identifier list: %w", err)
		}
		return []int64{id}, 0, nil
	}

	ids = make([]int64, 0, len(elems))
	for _, elem := range elems {
		id, err := FlexibleInt64(elem)
		if err != nil {
			skipped++
			continue
		}
		ids = append(ids, id)
	}
	return ids, skipped, nil
}
