package ir

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders v as the canonical JSON that record IDs, ledger
// digests and golden files are computed over. The same value always yields
// the same bytes:
//
//   - object keys are ordered by UTF-16 code units
//   - strings are NFC-normalised and written without HTML escaping
//   - U+2028 and U+2029 are written literally
//   - there is no whitespace
//
// Only string, int, int64, bool, []string, []any and map[string]any are
// accepted. Floats and nil are rejected: measurements travel as strings
// and absent fields are omitted.
func MarshalCanonical(v any) ([]byte, error) {
	var e canonicalEncoder
	if err := e.value(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type canonicalEncoder struct {
	buf     bytes.Buffer
	scratch bytes.Buffer
}

func (e *canonicalEncoder) value(v any) error {
	switch val := v.(type) {
	case string:
		return e.str(val)
	case int:
		fmt.Fprint(&e.buf, val)
	case int64:
		fmt.Fprint(&e.buf, val)
	case bool:
		fmt.Fprint(&e.buf, val)
	case []string:
		return e.array(len(val), func(i int) error { return e.str(val[i]) })
	case []any:
		return e.array(len(val), func(i int) error { return e.value(val[i]) })
	case map[string]any:
		return e.object(val)
	case nil:
		return fmt.Errorf("canonical JSON has no null; omit the field")
	case float32, float64:
		return fmt.Errorf("canonical JSON has no floats: %v", val)
	default:
		return fmt.Errorf("canonical JSON cannot encode %T", v)
	}
	return nil
}

func (e *canonicalEncoder) array(n int, elem func(i int) error) error {
	e.buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := elem(i); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	e.buf.WriteByte(']')
	return nil
}

func (e *canonicalEncoder) object(obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	e.buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.str(k); err != nil {
			return err
		}
		e.buf.WriteByte(':')
		if err := e.value(obj[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	e.buf.WriteByte('}')
	return nil
}

// str writes a quoted string. encoding/json escapes U+2028 and U+2029 for
// JavaScript, so the text is split around them and they are copied as is.
func (e *canonicalEncoder) str(s string) error {
	s = norm.NFC.String(s)
	e.buf.WriteByte('"')
	for {
		i := strings.IndexFunc(s, isLineSeparator)
		if i < 0 {
			break
		}
		if err := e.escape(s[:i]); err != nil {
			return err
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		e.buf.WriteString(s[i : i+size])
		s = s[i+size:]
	}
	if err := e.escape(s); err != nil {
		return err
	}
	e.buf.WriteByte('"')
	return nil
}

// escape writes s JSON-escaped without the surrounding quotes.
func (e *canonicalEncoder) escape(s string) error {
	if s == "" {
		return nil
	}
	e.scratch.Reset()
	enc := json.NewEncoder(&e.scratch)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	quoted := bytes.TrimSuffix(e.scratch.Bytes(), []byte("\n"))
	e.buf.Write(quoted[1 : len(quoted)-1])
	return nil
}

func isLineSeparator(r rune) bool {
	return r == '\u2028' || r == '\u2029'
}

// compareUTF16 orders strings by their UTF-16 encoding. It differs from
// byte order only where a supplementary character meets U+E000..U+FFFF.
func compareUTF16(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		if ra != rb {
			return cmp.Compare(utf16Units(ra), utf16Units(rb))
		}
		a, b = a[na:], b[nb:]
	}
	return cmp.Compare(len(a), len(b))
}

// utf16Units packs the code units of r so that integer order matches
// code unit order.
func utf16Units(r rune) uint32 {
	if hi, lo := utf16.EncodeRune(r); hi != utf8.RuneError {
		return uint32(hi)<<16 | uint32(lo)
	}
	return uint32(r) << 16
}
