package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPayload is returned for an empty body, JSON null or {}.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrNotObject is returned when the payload is valid JSON but not an object.
	ErrNotObject = errors.New("payload is not a JSON object")
)

// DecodeJSONObject decodes a webhook body into a generic object. Numbers are
// kept as json.Number so the stored payload round-trips verbatim. A body that
// is a JSON string holding an object (a stringified payload) is unwrapped.
func DecodeJSONObject(b []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrEmptyPayload
	}

	v, err := decodeValue(b)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		if v, err = decodeValue([]byte(s)); err != nil {
			return nil, err
		}
	}

	switch obj := v.(type) {
	case nil:
		return nil, ErrEmptyPayload
	case map[string]any:
		if len(obj) == 0 {
			return nil, ErrEmptyPayload
		}
		return obj, nil
	default:
		return nil, ErrNotObject
	}
}

func decodeValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// objectValue returns v as an object. Strings are parsed as JSON; anything
// that does not yield an object reports ok=false. parsed tells the caller
// the value arrived as text.
func objectValue(v any) (obj map[string]any, parsed bool, ok bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, false, true
	case string:
		decoded, err := decodeValue([]byte(t))
		if err != nil {
			return nil, true, false
		}
		m, isObj := decoded.(map[string]any)
		return m, true, isObj
	default:
		return nil, false, false
	}
}

// textValue renders scalar identity-like values as text. Empty strings,
// objects, arrays and null yield nil.
func textValue(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// diffValue coerces an old/new field value to text: strings verbatim,
// null or missing as nil, everything else as compact JSON.
func diffValue(v any, present bool) *string {
	if !present || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// numberValue reads JSON numbers and numeric strings.
func numberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// firstText returns the first non-empty text among keys of m.
func firstText(m map[string]any, keys ...string) *string {
	for _, k := range keys {
		if s := textValue(m[k]); s != nil {
			return s
		}
	}
	return nil
}

func objectList(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
