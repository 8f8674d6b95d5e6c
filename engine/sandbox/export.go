package sandbox

// plainData converts an exported JavaScript value into plain Go data. Numbers become float64
// whether the runtime held them as integers or not, and values without a data representation
// (functions, dates, regular expressions) become nil.
func plainData(value any) any {
	switch v := value.(type) {
	case nil, bool, string, float64:
		return v
	case int64:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainData(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = plainData(item)
		}
		return out
	default:
		return nil
	}
}
