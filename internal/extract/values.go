package extract

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// jsonValue converts a gjson value into the scalar stored in a record. Whole
// numbers become int64, missing values nil, and nested arrays or objects are
// kept as their raw JSON text.
func jsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if r.Num == math.Trunc(r.Num) && math.Abs(r.Num) < 1<<53 {
			return int64(r.Num)
		}
		return r.Num
	case gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}

// containsValue reports whether an array holds the string s, or whether a
// string value contains s.
func containsValue(r gjson.Result, s string) bool {
	if r.IsArray() {
		for _, v := range r.Array() {
			if v.String() == s {
				return true
			}
		}
		return false
	}
	return r.Type == gjson.String && strings.Contains(r.Str, s)
}

func stringArray(r gjson.Result) []string {
	out := make([]string, 0)
	for _, v := range r.Array() {
		if v.Type == gjson.String {
			out = append(out, v.Str)
		}
	}
	return out
}
