package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Argument values arrive as decoded JSON: scalar, sequence, or mapping. The
// helpers below are the single place where that variance is resolved; handler
// code past this point works with concrete types.

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	switch v := v.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// argScalar returns the value in its wire form: strings trimmed, numbers kept
// numeric with whole floats restored to integers. Used for ids the remote
// service types numerically.
func argScalar(args map[string]any, key string) (any, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	switch v := v.(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return v, true
	case int:
		return v, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func argInt(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false
	}
	switch v := v.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func argFloat(args map[string]any, key string) (float64, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false
	}
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// argMapping accepts a value that is either already a mapping or a
// string-encoded JSON object (models routinely re-serialize opaque tokens)
// and returns the mapping form.
func argMapping(args map[string]any, key string) (map[string]any, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, false
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
			return nil, false
		}
		return m, true
	default:
		return nil, false
	}
}

// argItemList extracts a sequence of item mappings, tolerating a
// string-encoded JSON array.
func argItemList(args map[string]any, key string) ([]map[string]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("missing %s", key)
	}

	var seq []any
	switch v := v.(type) {
	case []any:
		seq = v
	case string:
		if err := json.Unmarshal([]byte(v), &seq); err != nil {
			return nil, fmt.Errorf("%s is not a list: %v", key, err)
		}
	default:
		return nil, fmt.Errorf("%s is not a list (got %T)", key, v)
	}

	items := make([]map[string]any, 0, len(seq))
	for i, entry := range seq {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not an object (got %T)", key, i, entry)
		}
		items = append(items, m)
	}
	return items, nil
}

// anyToString renders a loosely-typed id (string or number) canonically.
func anyToString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
