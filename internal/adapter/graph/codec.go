// Package graph implements statement-based export and replay for graph
// backing stores. Exports are portable Cypher scripts: one CREATE statement
// per node, one MATCH+CREATE per relationship, one statement per line.
package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// EncodeValue renders a property value as a Cypher literal.
//
// Strings escape backslash first, then quote, newline, carriage return and
// tab; escaping the quote first would double-escape the backslashes the quote
// escaping inserts. Newlines must be escaped because the replay path reads
// statements line by line. Unrecognized types fall back to a best-effort
// string rendering; this is a known limitation, not a silent drop.
func EncodeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return encodeString(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = EncodeValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return encodeString(fmt.Sprintf("%v", v))
	}
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func encodeString(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

// EncodeName renders a label, relationship type or property key. Anything
// that is not a plain identifier is backtick quoted, with embedded backticks
// doubled, so keys with spaces or punctuation survive the round trip.
func EncodeName(name string) string {
	if isPlainIdentifier(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func isPlainIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// EncodeProps renders a property map as a Cypher map literal with keys in
// sorted order so exports are deterministic. Empty maps render as "".
func EncodeProps(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", EncodeName(k), EncodeValue(props[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// DecodeValue parses a single Cypher literal produced by EncodeValue.
func DecodeValue(s string) (any, error) {
	d := &decoder{input: strings.TrimSpace(s)}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.pos != len(d.input) {
		return nil, fmt.Errorf("trailing input at offset %d", d.pos)
	}
	return v, nil
}

// ParseProps parses a Cypher map literal produced by EncodeProps.
func ParseProps(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}, nil
	}
	d := &decoder{input: s}
	props, err := d.props()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.pos != len(d.input) {
		return nil, fmt.Errorf("trailing input at offset %d", d.pos)
	}
	return props, nil
}

type decoder struct {
	input string
	pos   int
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.input) && (d.input[d.pos] == ' ' || d.input[d.pos] == '\t') {
		d.pos++
	}
}

func (d *decoder) peek() byte {
	if d.pos >= len(d.input) {
		return 0
	}
	return d.input[d.pos]
}

func (d *decoder) expect(c byte) error {
	if d.peek() != c {
		return fmt.Errorf("expected %q at offset %d", string(c), d.pos)
	}
	d.pos++
	return nil
}

func (d *decoder) value() (any, error) {
	d.skipSpace()
	switch {
	case d.peek() == '"':
		return d.quotedString()
	case d.peek() == '[':
		return d.list()
	case strings.HasPrefix(d.input[d.pos:], "null"):
		d.pos += len("null")
		return nil, nil
	case strings.HasPrefix(d.input[d.pos:], "true"):
		d.pos += len("true")
		return true, nil
	case strings.HasPrefix(d.input[d.pos:], "false"):
		d.pos += len("false")
		return false, nil
	default:
		return d.number()
	}
}

func (d *decoder) quotedString() (string, error) {
	if err := d.expect('"'); err != nil {
		return "", err
	}
	var b strings.Builder
	for d.pos < len(d.input) {
		c := d.input[d.pos]
		switch c {
		case '"':
			d.pos++
			return b.String(), nil
		case '\\':
			d.pos++
			if d.pos >= len(d.input) {
				return "", fmt.Errorf("unterminated escape at offset %d", d.pos)
			}
			switch d.input[d.pos] {
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				return "", fmt.Errorf("unknown escape \\%s at offset %d", string(d.input[d.pos]), d.pos)
			}
			d.pos++
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (d *decoder) list() (any, error) {
	if err := d.expect('['); err != nil {
		return nil, err
	}
	items := []any{}
	d.skipSpace()
	if d.peek() == ']' {
		d.pos++
		return items, nil
	}
	for {
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		d.skipSpace()
		if d.peek() == ',' {
			d.pos++
			continue
		}
		if err := d.expect(']'); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func (d *decoder) number() (any, error) {
	start := d.pos
	for d.pos < len(d.input) && strings.ContainsRune("+-0123456789.eE", rune(d.input[d.pos])) {
		d.pos++
	}
	text := d.input[start:d.pos]
	if text == "" {
		return nil, fmt.Errorf("unexpected input at offset %d", start)
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at offset %d", text, start)
	}
	return f, nil
}

func (d *decoder) props() (map[string]any, error) {
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	props := map[string]any{}
	d.skipSpace()
	if d.peek() == '}' {
		d.pos++
		return props, nil
	}
	for {
		d.skipSpace()
		key, err := d.ident()
		if err != nil {
			return nil, err
		}
		d.skipSpace()
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		value, err := d.value()
		if err != nil {
			return nil, err
		}
		props[key] = value
		d.skipSpace()
		if d.peek() == ',' {
			d.pos++
			continue
		}
		if err := d.expect('}'); err != nil {
			return nil, err
		}
		return props, nil
	}
}

func (d *decoder) ident() (string, error) {
	if d.peek() == '`' {
		return d.quotedName()
	}
	start := d.pos
	for d.pos < len(d.input) {
		c := d.input[d.pos]
		if c == ':' || c == ' ' || c == ',' || c == '}' {
			break
		}
		d.pos++
	}
	if d.pos == start {
		return "", fmt.Errorf("expected property key at offset %d", start)
	}
	return d.input[start:d.pos], nil
}

func (d *decoder) quotedName() (string, error) {
	d.pos++ // opening backtick
	var b strings.Builder
	for d.pos < len(d.input) {
		if d.input[d.pos] != '`' {
			b.WriteByte(d.input[d.pos])
			d.pos++
			continue
		}
		// A doubled backtick is a literal one; a single backtick ends the name.
		if d.pos+1 < len(d.input) && d.input[d.pos+1] == '`' {
			b.WriteByte('`')
			d.pos += 2
			continue
		}
		d.pos++
		return b.String(), nil
	}
	return "", fmt.Errorf("unterminated quoted name")
}
