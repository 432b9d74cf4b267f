package notification

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// lookup returns the first non-nil value under any of the keys.
func lookup(data map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// stringField returns a payload value as a trimmed string. Numbers are
// accepted so that integer ids coming from JSON still resolve.
func stringField(data map[string]any, keys ...string) (string, bool) {
	v, ok := lookup(data, keys...)
	if !ok {
		return "", false
	}
	s := stringify(v)
	if s == "" {
		return "", false
	}
	return s, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case bool, uint, uint32, uint64:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// stringList returns a payload list of ids. A single scalar is treated as a
// one-element list.
func stringList(data map[string]any, key string) []string {
	v, ok := lookup(data, key)
	if !ok {
		return nil
	}

	var out []string
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := stringify(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// numberField returns a payload value as a float64. present is false when
// none of the keys is set. A present but non-numeric value is an error.
func numberField(data map[string]any, keys ...string) (value float64, present bool, err error) {
	v, ok := lookup(data, keys...)
	if !ok {
		return 0, false, nil
	}

	switch t := v.(type) {
	case float64:
		return t, true, nil
	case float32:
		return float64(t), true, nil
	case int:
		return float64(t), true, nil
	case int8:
		return float64(t), true, nil
	case int16:
		return float64(t), true, nil
	case int32:
		return float64(t), true, nil
	case int64:
		return float64(t), true, nil
	case uint:
		return float64(t), true, nil
	case uint8:
		return float64(t), true, nil
	case uint16:
		return float64(t), true, nil
	case uint32:
		return float64(t), true, nil
	case uint64:
		return float64(t), true, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, true, fmt.Errorf("parsing number %q: %w", t, err)
		}
		return f, true, nil
	case decimal.Decimal:
		return t.InexactFloat64(), true, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(t, ",", "")))
		if err != nil {
			return 0, true, fmt.Errorf("parsing number %q: %w", t, err)
		}
		return d.InexactFloat64(), true, nil
	default:
		return 0, true, fmt.Errorf("unsupported numeric type %T", v)
	}
}
