package content

import "encoding/json"

// ServiceEntity is a service artifact: arbitrary document metadata plus the
// required id/order/enabled fields used for display sorting and filtering.
type ServiceEntity struct {
	ID      string
	Order   int
	Enabled bool
	// Fields carries the remaining document metadata verbatim.
	Fields map[string]any
}

// MarshalJSON flattens the entity into a single JSON object: Fields first,
// then the typed members so they always win on key collision.
func (s ServiceEntity) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(s.Fields)+3)
	for k, v := range s.Fields {
		merged[k] = v
	}
	merged["id"] = s.ID
	merged["order"] = s.Order
	merged["enabled"] = s.Enabled
	return json.Marshal(merged)
}

// UnmarshalJSON restores the typed members and keeps every other key in Fields.
func (s *ServiceEntity) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"].(string); ok {
		s.ID = id
	}
	s.Order = CoerceInt(raw["order"], 0)
	s.Enabled = CoerceBool(raw["enabled"], true)
	delete(raw, "id")
	delete(raw, "order")
	delete(raw, "enabled")
	s.Fields = raw
	return nil
}

// CoerceInt extracts an int from loosely typed metadata (YAML ints, JSON
// float64s, or absent values).
func CoerceInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case uint64:
		return int(n)
	default:
		return fallback
	}
}

// CoerceBool extracts a bool from loosely typed metadata.
func CoerceBool(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// CoerceString extracts a string, returning fallback for non-strings and "".
func CoerceString(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// CoerceStringSlice extracts a []string from YAML/JSON list metadata,
// skipping non-string elements.
func CoerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
