package build

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

func itoa(i int) string { return strconv.Itoa(i) }

// stringify renders a loosely typed JSON scalar. Numbers keep their literal
// form so that an id of 300 and "300" produce the same string.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// courseID interprets v as a positive integral course identifier. Strings
// count when they hold only digits, so "300" qualifies but "CS 300" does not.
func courseID(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, x > 0
	case int64:
		return int(x), x > 0
	case float64:
		if x > 0 && x == math.Trunc(x) && x < math.MaxInt32 {
			return int(x), true
		}
	case json.Number:
		return courseID(x.String())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		n, err := strconv.Atoi(s)
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func float(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// rawCourseID decodes a json.RawMessage holding a number or a string.
func rawCourseID(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	return courseID(v)
}

// first returns the first non-empty value among keys.
func first(m map[string]any, keys ...string) (any, string) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil && stringify(v) != "" {
			return v, k
		}
	}
	return nil, ""
}
