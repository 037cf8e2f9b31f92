package domain

// Metadata is an unstructured JSON object used for run parameters and results.
type Metadata map[string]any

// Clone deep-copies nested maps and slices so snapshots handed to observers
// never alias the orchestrator's copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return map[string]any(Metadata(typed).Clone())
	case Metadata:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return v
	}
}
