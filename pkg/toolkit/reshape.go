package toolkit

// Unknown is rendered for enum fields the platform left unset.
const Unknown = "UNKNOWN"

// EnumString renders an SDK enum value as its string, or Unknown when unset.
func EnumString[T ~string](v T) string {
	if v == "" {
		return Unknown
	}
	return string(v)
}

// Row is a reshaped SDK object.
type Row = map[string]any

// Reshape drops items whose identifying field is empty and maps the rest
// through fn, preserving order.
func Reshape[T any](items []T, id func(T) string, fn func(T) Row) []Row {
	out := make([]Row, 0, len(items))
	for _, item := range items {
		if id(item) == "" {
			continue
		}
		out = append(out, fn(item))
	}
	return out
}

// FilterMissing returns the items whose identifying field is non-empty,
// preserving order.
func FilterMissing[T any](items []T, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if id(item) != "" {
			out = append(out, item)
		}
	}
	return out
}

// Clamp returns def when v is not positive and caps the result at limit.
func Clamp(v, def, limit int) int {
	if v <= 0 {
		v = def
	}
	if limit > 0 && v > limit {
		v = limit
	}
	return v
}
