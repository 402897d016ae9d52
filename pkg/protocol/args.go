package protocol

import "math"

// Argument coercion helpers. Command args arrive as a generic JSON mapping;
// handlers read their expected fields through these accessors. Numbers decode
// as float64, so integer accessors truncate.

// GetString returns args[key] as a string, or def when absent or mistyped.
func GetString(args map[string]any, key, def string) string {
	if args == nil {
		return def
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

// GetInt returns args[key] as an int, or def when absent or mistyped.
func GetInt(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return int(v)
	case int:
		return v
	}
	return def
}

// GetFloat returns args[key] as a float64, or def when absent or mistyped.
func GetFloat(args map[string]any, key string, def float64) float64 {
	if args == nil {
		return def
	}
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// GetBool returns args[key] as a bool, or def when absent or mistyped.
func GetBool(args map[string]any, key string, def bool) bool {
	if args == nil {
		return def
	}
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// GetStringSlice returns args[key] as a slice of strings. Non-string
// elements are skipped. Returns nil when absent or mistyped.
func GetStringSlice(args map[string]any, key string) []string {
	if args == nil {
		return nil
	}
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetMap returns args[key] as a nested object, or nil when absent.
func GetMap(args map[string]any, key string) map[string]any {
	if args == nil {
		return nil
	}
	if v, ok := args[key].(map[string]any); ok {
		return v
	}
	return nil
}

// Has reports whether the key is present at all, regardless of type.
// Required-field checks use this to distinguish "absent" from JSON null.
func Has(args map[string]any, key string) bool {
	if args == nil {
		return false
	}
	v, ok := args[key]
	return ok && v != nil
}
