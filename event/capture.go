package event

import "encoding/json"

// Capture converts an arbitrary decoded value (typically the result of
// unmarshalling JSON into any) to the structured Value variant. Maps
// become dictionaries, slices become sequences, everything else becomes
// a scalar. Other types are kept unchanged inside a Scalar and encoded
// through their default JSON form; capture never fails: it feeds a
// diagnostic column, not a protocol.
func Capture(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case string:
		return Str(val)
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case float64:
		return Float(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n)
		}
		if f, err := val.Float64(); err == nil {
			return Float(f)
		}
		return Str(val.String())
	case []any:
		seq := make(Sequence, len(val))
		for i, elem := range val {
			seq[i] = Capture(elem)
		}
		return seq
	case map[string]any:
		dict := make(Dictionary, len(val))
		for k, elem := range val {
			dict[k] = Capture(elem)
		}
		return dict
	default:
		return Scalar{Val: val}
	}
}

// CaptureProperties converts a decoded map into a property map, ready to
// attach to a LogEvent.
func CaptureProperties(m map[string]any) map[string]Value {
	if len(m) == 0 {
		return nil
	}
	props := make(map[string]Value, len(m))
	for k, v := range m {
		props[k] = Capture(v)
	}
	return props
}
