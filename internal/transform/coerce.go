package transform

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/gatherly/companion/internal/model"
)

// Coerce converts value to the given field type, falling back to def
// when the value is nil or cannot be converted. It never panics and
// never returns an error: malformed upstream data degrades to the
// mapping's default.
func Coerce(value any, target model.FieldType, def any) (out any) {
	defer func() {
		if recover() != nil {
			out = def
		}
	}()

	if value == nil {
		return def
	}

	switch target {
	case model.TypeString:
		return coerceString(value)
	case model.TypeNumber:
		f, err := cast.ToFloat64E(value)
		if err != nil || math.IsNaN(f) {
			return def
		}
		return f
	case model.TypeBoolean:
		return coerceBool(value)
	case model.TypeDate:
		t, ok := coerceDate(value)
		if !ok {
			return def
		}
		return t
	case model.TypeArray:
		return coerceArray(value)
	case model.TypeObject:
		return coerceObject(value)
	default:
		// TypeAny and unrecognized tags pass through unchanged.
		return value
	}
}

func coerceString(value any) string {
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "1"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, _ := cast.ToFloat64E(v)
		return f != 0
	case float32, float64:
		f, _ := cast.ToFloat64E(v)
		return f != 0
	default:
		// Arrays and objects are truthy, nil was handled by the caller.
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Interface:
			return !rv.IsNil()
		}
		return true
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func coerceDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int, int64, float64:
		// Numeric timestamps arrive as epoch milliseconds.
		ms, err := cast.ToInt64E(v)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	default:
		return time.Time{}, false
	}
}

func coerceArray(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case map[string]any:
		// Some backends serialize empty arrays as empty objects; treat
		// them as the empty array they were meant to be.
		if len(v) == 0 {
			return []any{}
		}
		return []any{v}
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}

	return []any{value}
}

func coerceObject(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	}

	if !truthy(value) {
		return map[string]any{}
	}
	return map[string]any{"value": value}
}

// truthy reports plain truthiness: false, numeric zero, NaN, and the
// empty string are falsy, everything else is truthy. Unlike coerceBool
// it does not parse strings, so "x" stays truthy.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		f, _ := cast.ToFloat64E(v)
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}
