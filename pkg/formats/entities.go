package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/blackbloc/pkg/encoding"
)

// ErrMalformedEntities is returned when the entity lump text cannot be tokenized.
var ErrMalformedEntities = errors.New("malformed entity lump")

// Entity is one { "key" "value" ... } block of the entity lump.
// Keys keep their file order; a repeated key keeps the last value.
type Entity struct {
	Keys   []string
	Values map[string]string
}

// Get returns the value for key, or "" when absent.
func (e *Entity) Get(key string) string {
	return e.Values[key]
}

// ClassName returns the entity's "classname".
func (e *Entity) ClassName() string {
	return e.Values["classname"]
}

// Vector parses a "x y z" value. ok is false when the key is missing or malformed.
func (e *Entity) Vector(key string) (v [3]float32, ok bool) {
	fields := strings.Fields(e.Values[key])
	if len(fields) != 3 {
		return v, false
	}
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return v, false
		}
		v[i] = float32(n)
	}
	return v, true
}

// Float parses a numeric value. ok is false when the key is missing or malformed.
func (e *Entity) Float(key string) (float32, bool) {
	s, present := e.Values[key]
	if !present {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, false
	}
	return float32(n), true
}

// ParseEntities parses the Latin-1 encoded entity lump.
func ParseEntities(data []byte) ([]Entity, error) {
	// The lump is NUL-terminated inside its length.
	text := encoding.FixedString(data)
	tok := entityTokenizer{text: text}

	var entities []Entity
	for {
		t, quoted, ok := tok.next()
		if !ok {
			break
		}
		if quoted || t != "{" {
			return nil, fmt.Errorf("%w: expected '{' at offset %d, got %q", ErrMalformedEntities, tok.pos, t)
		}

		ent := Entity{Values: make(map[string]string)}
		for {
			key, keyQuoted, ok := tok.next()
			if !ok {
				return nil, fmt.Errorf("%w: unexpected end of text inside entity %d", ErrMalformedEntities, len(entities))
			}
			if !keyQuoted && key == "}" {
				break
			}
			if !keyQuoted && key == "{" {
				return nil, fmt.Errorf("%w: nested '{' in entity %d", ErrMalformedEntities, len(entities))
			}

			value, valueQuoted, ok := tok.next()
			if !ok {
				return nil, fmt.Errorf("%w: key %q has no value", ErrMalformedEntities, key)
			}
			if !valueQuoted && (value == "{" || value == "}") {
				return nil, fmt.Errorf("%w: key %q has no value", ErrMalformedEntities, key)
			}

			if _, seen := ent.Values[key]; !seen {
				ent.Keys = append(ent.Keys, key)
			}
			ent.Values[key] = value
		}
		entities = append(entities, ent)
	}

	return entities, nil
}

// entityTokenizer splits entity text into braces, quoted strings and bare words,
// skipping whitespace and // comments.
type entityTokenizer struct {
	text string
	pos  int
}

func (t *entityTokenizer) next() (token string, quoted bool, ok bool) {
	for {
		for t.pos < len(t.text) && t.text[t.pos] <= ' ' {
			t.pos++
		}
		if strings.HasPrefix(t.text[t.pos:], "//") {
			if nl := strings.IndexByte(t.text[t.pos:], '\n'); nl >= 0 {
				t.pos += nl + 1
				continue
			}
			t.pos = len(t.text)
		}
		break
	}
	if t.pos >= len(t.text) {
		return "", false, false
	}

	switch c := t.text[t.pos]; c {
	case '{', '}':
		t.pos++
		return string(c), false, true
	case '"':
		end := strings.IndexByte(t.text[t.pos+1:], '"')
		if end < 0 {
			// Unterminated string runs to the end of the lump.
			s := t.text[t.pos+1:]
			t.pos = len(t.text)
			return s, true, true
		}
		s := t.text[t.pos+1 : t.pos+1+end]
		t.pos += end + 2
		return s, true, true
	default:
		start := t.pos
		for t.pos < len(t.text) && t.text[t.pos] > ' ' && t.text[t.pos] != '"' &&
			t.text[t.pos] != '{' && t.text[t.pos] != '}' {
			t.pos++
		}
		return t.text[start:t.pos], false, true
	}
}
