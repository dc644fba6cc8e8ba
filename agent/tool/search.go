package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// summarizeSearch compacts a raw search response into one line per
// restaurant. Results may arrive as a flat list, or nested under a direct
// "restaurants" grouping and/or a sectioned "SECTION_SEARCH_RESULT" grouping;
// both groupings are unioned (direct first) and deduplicated by restaurant id
// with first occurrence winning. The raw payload is far too large for the
// model to act on reliably. Any parse failure falls back to the raw text.
func summarizeSearch(raw string) string {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}

	var entries []any
	var nextPostback any

	switch data := decoded.(type) {
	case []any:
		entries = data
	case map[string]any:
		nextPostback = data["postback_params"]

		if direct, ok := data["restaurants"].([]any); ok {
			entries = append(entries, direct...)
		}
		if sections, ok := data["sections"].(map[string]any); ok {
			if sectioned, ok := sections["SECTION_SEARCH_RESULT"].([]any); ok {
				entries = append(entries, sectioned...)
			}
		}
		entries = dedupeByResID(entries)
	default:
		return raw
	}

	if len(entries) == 0 {
		return raw
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		info := item
		if nested, ok := item["info"].(map[string]any); ok {
			info = nested
		}

		name := anyToString(info["name"])
		if name == "" {
			name = "Unknown"
		}
		resID := anyToString(info["res_id"])
		if resID == "" {
			resID = "N/A"
		}
		lines = append(lines, fmt.Sprintf("- %s (ID: %s) | Rating: %s | Time: %s",
			name, resID, ratingOf(info), deliveryTimeOf(info)))
	}
	if len(lines) == 0 {
		return raw
	}

	out := strings.Join(lines, "\n")
	if nextPostback != nil {
		if encoded, err := json.Marshal(nextPostback); err == nil {
			out += fmt.Sprintf("\n\n[Pagination] To see more results, call this tool again with postback_params='%s'", encoded)
		}
	}
	return out
}

func dedupeByResID(entries []any) []any {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]any, 0, len(entries))
	for _, entry := range entries {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		info := item
		if nested, ok := item["info"].(map[string]any); ok {
			info = nested
		}
		// Entries with no res_id are not actionable and are dropped.
		id := anyToString(info["res_id"])
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, entry)
	}
	return unique
}

func ratingOf(info map[string]any) string {
	switch r := info["rating"].(type) {
	case string:
		return r
	case map[string]any:
		if agg := anyToString(r["aggregate_rating"]); agg != "" {
			return agg
		}
	case float64:
		return anyToString(r)
	}
	return "N/A"
}

func deliveryTimeOf(info map[string]any) string {
	if order, ok := info["order"].(map[string]any); ok {
		if t := anyToString(order["delivery_time"]); t != "" {
			return t
		}
	}
	return "N/A"
}
