package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"hoteldesk/internal/domain"
)

// FieldKind is the declared type tag of a payload field.
type FieldKind int

const (
	String FieldKind = iota
	Int
	Number
	Bool
	JSONArray
)

type Field struct {
	Name string
	Kind FieldKind
}

// Project copies the declared fields that are present in the payload into
// a Row, coercing each value per its kind. Absent keys and explicit nulls
// are skipped, never defaulted — a partial payload must not clobber stored
// values. An empty result means "nothing to write for this sub-resource".
func Project(payload map[string]any, fields []Field) (domain.Row, error) {
	out := domain.Row{}
	for _, f := range fields {
		v, ok := payload[f.Name]
		if !ok || v == nil {
			continue
		}
		cv, err := coerce(v, f.Kind)
		if err != nil {
			return nil, domain.Errorf(domain.KindInvalidFieldType, "field %q: %v", f.Name, err)
		}
		out[f.Name] = cv
	}
	return out, nil
}

func coerce(v any, kind FieldKind) (any, error) {
	switch kind {
	case String:
		return coerceString(v)
	case Int:
		return coerceInt(v)
	case Number:
		return coerceNumber(v)
	case Bool:
		return coerceBool(v)
	case JSONArray:
		return coerceJSONArray(v)
	}
	return nil, fmt.Errorf("unknown field kind %d", kind)
}

func coerceString(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case json.Number:
		return t.String(), nil
	}
	return nil, fmt.Errorf("cannot coerce %T to string", v)
}

func coerceInt(v any) (any, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		if t != float64(int64(t)) {
			return nil, fmt.Errorf("%v is not an integer", t)
		}
		return int64(t), nil
	case json.Number:
		return coerceInt(string(t))
	case string, []byte:
		s := asTrimmedString(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	return nil, fmt.Errorf("cannot coerce %T to integer", v)
}

// coerceNumber accepts numbers and numeric strings, tolerating a comma
// decimal separator the way upstream wizard clients send them.
func coerceNumber(v any) (any, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	case json.Number:
		return coerceNumber(string(t))
	case string, []byte:
		s := strings.ReplaceAll(asTrimmedString(t), ",", ".")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("%q is not numeric", asTrimmedString(t))
	}
	return nil, fmt.Errorf("cannot coerce %T to number", v)
}

func coerceBool(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case int64:
		return t != 0, nil
	case json.Number:
		return coerceBool(string(t))
	case string, []byte:
		switch strings.ToLower(asTrimmedString(t)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a boolean", asTrimmedString(t))
	}
	return nil, fmt.Errorf("cannot coerce %T to boolean", v)
}

// coerceJSONArray accepts either a decoded array or a JSON-encoded string.
// A string that does not parse to an array fails closed rather than being
// silently coerced to empty.
func coerceJSONArray(v any) (any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case string, []byte:
		var decoded any
		if err := json.Unmarshal([]byte(asTrimmedString(t)), &decoded); err != nil {
			return nil, fmt.Errorf("not a JSON array: %v", err)
		}
		arr, ok := decoded.([]any)
		if !ok {
			return nil, fmt.Errorf("JSON value is %T, not an array", decoded)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to array", v)
}

func asTrimmedString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	}
	return ""
}

// Normalize re-types a stored row for the composed response using the same
// field specs: the MySQL driver hands decimals, booleans, and JSON columns
// back as strings or 0/1 ints. Values that do not re-coerce are kept as-is.
func Normalize(row domain.Row, fields []Field) domain.Row {
	if row == nil {
		return nil
	}
	out := row.Clone()
	for _, f := range fields {
		v, ok := out[f.Name]
		if !ok || v == nil {
			continue
		}
		if cv, err := coerce(v, f.Kind); err == nil {
			out[f.Name] = cv
		}
	}
	return out
}
