package event

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/message"
)

// RenderMessage substitutes property values into the message template's
// {Name} holes and returns the rendered text.
//
// Hole syntax follows the host's template language:
//   - "{{" and "}}" are literal braces
//   - a leading '@' or '$' destructuring hint on the hole name is ignored
//   - a ":format" suffix is tolerated and ignored
//   - holes with no matching property are left verbatim
//
// The printer carries the caller's locale; numeric scalars are formatted
// through it. A nil printer falls back to fmt formatting.
func (e LogEvent) RenderMessage(p *message.Printer) string {
	tmpl := e.MessageTemplate
	if !strings.ContainsRune(tmpl, '{') {
		return tmpl
	}

	var out strings.Builder
	out.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			out.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			out.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				// Unterminated hole - emit the rest verbatim.
				out.WriteString(tmpl[i:])
				i = len(tmpl)
				break
			}
			hole := tmpl[i+1 : i+end]
			if text, ok := e.renderHole(hole, p); ok {
				out.WriteString(text)
			} else {
				out.WriteString(tmpl[i : i+end+1])
			}
			i += end + 1
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// renderHole resolves one hole body ("Name", "@Name", "Name:format")
// against the event's properties.
func (e LogEvent) renderHole(hole string, p *message.Printer) (string, bool) {
	name := hole
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimLeft(name, "@$")

	v, ok := e.Properties[name]
	if !ok {
		return "", false
	}
	return formatValue(v, p), true
}

// formatValue renders a property value as display text. Scalars go
// through the locale printer; composites use their JSON form.
func formatValue(v Value, p *message.Printer) string {
	s, ok := v.(Scalar)
	if !ok {
		var buf bytes.Buffer
		writeValue(&buf, v)
		return buf.String()
	}

	if s.Val == nil {
		return ""
	}
	if str, ok := s.Val.(string); ok {
		return str
	}
	if p != nil {
		return p.Sprintf("%v", s.Val)
	}
	return fmt.Sprint(s.Val)
}
