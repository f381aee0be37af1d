package fixture

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// reprMaxSize matches the width setup plans clip parameter reprs to.
const reprMaxSize = 42

// Value is a single parameter value. It holds one of string, int64, float64,
// bool or nil.
type Value struct {
	v any
}

// NewValue wraps a decoded scalar. Non-scalar values are rejected.
func NewValue(raw any) (Value, error) {
	v, err := normalizeScalar(raw)
	if err != nil {
		return Value{}, err
	}
	return Value{v: v}, nil
}

// MustValue is NewValue for literals known to be scalars.
func MustValue(raw any) Value {
	v, err := NewValue(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Equal reports whether two values hold the same scalar.
func (v Value) Equal(other Value) bool {
	a, aok := v.v.(float64)
	b, bok := other.v.(float64)
	if aok && bok {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	}
	return v.v == other.v
}

// String returns the Python repr of the value.
func (v Value) String() string { return v.Repr() }

// Repr renders the value the way Python's repr does, clipped to the width
// used in setup plans.
func (v Value) Repr() string {
	return ellipsize(v.fullRepr(), reprMaxSize)
}

func (v Value) fullRepr() string {
	switch x := v.v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case string:
		return quoteString(x)
	default:
		return fmt.Sprint(x)
	}
}

// ID renders the value as a test id fragment.
func (v Value) ID() string {
	switch x := v.v.(type) {
	case string:
		return asciiEscaped(x)
	default:
		return v.fullRepr()
	}
}

func normalizeScalars(values []any) ([]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]any, len(values))
	for i, raw := range values {
		v, err := normalizeScalar(raw)
		if err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func normalizeScalar(raw any) (any, error) {
	switch x := raw.(type) {
	case nil, string, bool, int64, float64:
		return x, nil
	case Value:
		return x.v, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", x)
		}
		return int64(x), nil
	case float32:
		return float64(x), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %T", raw)
	}
}

func wrapValues(values []any) []Value {
	if len(values) == 0 {
		return nil
	}
	out := make([]Value, len(values))
	for i, raw := range values {
		v, err := normalizeScalar(raw)
		if err != nil {
			v = fmt.Sprint(raw)
		}
		out[i] = Value{v: v}
	}
	return out
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	expAt := strings.LastIndexByte(sci, 'e')
	exp, _ := strconv.Atoi(sci[expAt+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(fixed, ".") {
		fixed += ".0"
	}
	return fixed
}

func quoteString(s string) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// asciiEscaped keeps printable ASCII and escapes everything else.
func asciiEscaped(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&b, `\x%02x`, s[i])
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
		i += size
	}
	return b.String()
}

func ellipsize(s string, maxSize int) string {
	runes := []rune(s)
	if len(runes) <= maxSize {
		return s
	}
	i := max(0, (maxSize-3)/2)
	j := max(0, maxSize-3-i)
	return string(runes[:i]) + "..." + string(runes[len(runes)-j:])
}
