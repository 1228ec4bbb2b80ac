package mirror

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical serializes a snapshot (or any snapshot-shaped value)
// into deterministic JSON: object keys sorted, strings NFC-normalized, no
// HTML escaping, and floats in shortest round-trip form.
//
// Snapshots are comparison payloads (golden files, run logs), not hash
// inputs, so unlike strict canonical-JSON profiles this encoder accepts
// floats and null.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return marshalCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case float64:
		return marshalCanonicalFloat(buf, val)
	case float32:
		return marshalCanonicalFloat(buf, float64(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case Snapshot:
		return marshalCanonicalObject(buf, val)
	case map[string]any:
		return marshalCanonicalObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	buf.WriteByte('{')
	for i, key := range sortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalString(buf, key); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[key]); err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// marshalCanonicalFloat writes the shortest decimal form that round-trips
// to the same float64. NaN and infinities have no JSON representation.
func marshalCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if f != f {
		return fmt.Errorf("NaN has no canonical JSON form")
	}
	if f > maxFloat || f < -maxFloat {
		return fmt.Errorf("infinity has no canonical JSON form")
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

const maxFloat = 1.7976931348623157e308

// marshalCanonicalString writes a JSON string with NFC normalization and
// without HTML escaping. Only control characters, backslash and quote are
// escaped.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	s = norm.NFC.String(s)
	if !utf8.ValidString(s) {
		return fmt.Errorf("invalid UTF-8 in string")
	}

	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	return nil
}

// sortedKeys returns the map's keys in ascending byte order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
