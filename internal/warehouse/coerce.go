package warehouse

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// Coerce converts v into a value of the column type. Strings longer than a
// varchar column are truncated. An error means v cannot represent the type.
func (c Column) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch c.Type {
	case TypeVarchar:
		return truncate(toString(v), c.Length), nil
	case TypeInteger:
		return toInt(v)
	case TypeBoolean:
		return toBool(v)
	case TypeDate, TypeTimestamp:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		return nil, fmt.Errorf("expected time, got %T", v)
	case TypeVarcharArray:
		switch s := v.(type) {
		case []string:
			return s, nil
		case []any:
			out := make([]string, 0, len(s))
			for _, item := range s {
				out = append(out, toString(item))
			}
			return out, nil
		}
		return nil, fmt.Errorf("expected string list, got %T", v)
	default:
		return v, nil
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, length int) string {
	if length <= 0 || utf8.RuneCountInString(s) <= length {
		return s
	}
	return string([]rune(s)[:length])
}

func toInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%v is not a whole number", n)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", n)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func toBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", b)
		}
		return parsed, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	default:
		return nil, fmt.Errorf("expected boolean, got %T", v)
	}
}
