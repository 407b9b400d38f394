package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Type tags that mark a Structure as a key/value pair. The match is a
// prefix match because hosts append generic-arity suffixes to the tag.
const (
	dictionaryEntryTag = "DictionaryEntry"
	keyValuePairTag    = "KeyValuePair"
)

// EncodeProperties converts a property map to its JSON text form for the
// Properties column. An empty or nil map encodes to the empty string, not
// "{}" - the column is a diagnostic dump and blank means "no properties".
func EncodeProperties(props map[string]Value) string {
	if len(props) == 0 {
		return ""
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, k)
		buf.WriteByte(':')
		writeValue(&buf, props[k])
	}

	buf.WriteByte('}')
	return buf.String()
}

// writeValue appends the JSON encoding of a single value.
func writeValue(buf *bytes.Buffer, v Value) {
	switch val := v.(type) {
	case Scalar:
		writeScalar(buf, val)
	case Sequence:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, elem)
		}
		buf.WriteByte(']')
	case Dictionary:
		buf.WriteByte('{')
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			writeValue(buf, val[k])
		}
		buf.WriteByte('}')
	case Structure:
		writeStructure(buf, val)
	default:
		// Unknown implementations cannot exist (sealed interface), but a
		// nil Value can. Encode it as null rather than panic.
		buf.WriteString("null")
	}
}

// writeStructure encodes a Structure. Key/value-pair tagged structures
// collapse to a single-entry object keyed by the first member's value;
// everything else is an object over the members in declaration order.
func writeStructure(buf *bytes.Buffer, s Structure) {
	if isPairTag(s.TypeTag) && len(s.Members) >= 2 {
		buf.WriteByte('{')
		writeJSONString(buf, scalarString(s.Members[0].Value))
		buf.WriteByte(':')
		writeValue(buf, s.Members[1].Value)
		buf.WriteByte('}')
		return
	}

	buf.WriteByte('{')
	for i, m := range s.Members {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(buf, m.Name)
		buf.WriteByte(':')
		writeValue(buf, m.Value)
	}
	buf.WriteByte('}')
}

// isPairTag reports whether a type tag requests key/value-pair encoding.
func isPairTag(tag string) bool {
	return strings.HasPrefix(tag, dictionaryEntryTag) ||
		strings.HasPrefix(tag, keyValuePairTag)
}

// writeScalar appends the native JSON form of a scalar.
func writeScalar(buf *bytes.Buffer, s Scalar) {
	if s.Val == nil {
		buf.WriteString("null")
		return
	}
	buf.WriteString(marshalCompact(s.Val))
}

// writeJSONString appends a quoted JSON string.
func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteString(marshalCompact(s))
}

// marshalCompact marshals a primitive without HTML escaping and without
// the trailing newline json.Encoder appends.
func marshalCompact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// Primitives cannot fail to encode; composite fallbacks might.
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return strings.TrimSpace(buf.String())
}

// scalarString renders a value as a plain string for use as an object key.
func scalarString(v Value) string {
	if s, ok := v.(Scalar); ok {
		if s.Val == nil {
			return ""
		}
		if str, ok := s.Val.(string); ok {
			return str
		}
		return fmt.Sprint(s.Val)
	}
	// Composite keys degrade to their JSON text.
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.String()
}
