package logging

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Unserializable replaces context values that cannot be represented as JSON.
const Unserializable = "[Unserializable]"

const maxFieldDepth = 32

// Fields is the free-form context attached to an entry.
//
// After Sanitize every value is one of: nil, string, bool, a finite number,
// []any or map[string]any of the same.
type Fields map[string]any

// Merge returns a new Fields holding f overlaid with each of others in order.
// Nil inputs are skipped; the result is nil only when nothing was merged.
func Merge(f Fields, others ...Fields) Fields {
	var out Fields
	for _, src := range append([]Fields{f}, others...) {
		for k, v := range src {
			if out == nil {
				out = make(Fields, len(src))
			}
			out[k] = v
		}
	}
	return out
}

// Sanitize returns a JSON-safe deep copy of f. It never fails: values that
// cannot be encoded are replaced with Unserializable.
func Sanitize(f Fields) Fields {
	if len(f) == 0 {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = sanitizeValue(v, 0)
	}
	return out
}

func sanitizeValue(v any, depth int) any {
	if depth > maxFieldDepth {
		return Unserializable
	}
	if IsNil(v) {
		return nil
	}

	switch val := v.(type) {
	case nil:
		return nil
	case string, bool:
		return val
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return val
	case float32:
		return finiteOrSentinel(float64(val))
	case float64:
		return finiteOrSentinel(val)
	case json.Number:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return val.String()
	case error:
		return callString(val.Error)
	case Fields:
		return sanitizeMap(val, depth)
	case map[string]any:
		return sanitizeMap(val, depth)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item, depth+1)
		}
		return out
	case json.Marshaler:
		return roundTrip(val)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	case fmt.Stringer:
		return callString(val.String)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return Unserializable
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = sanitizeValue(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return roundTrip(v)
		}
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = sanitizeValue(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return sanitizeValue(rv.Elem().Interface(), depth+1)
	}

	return roundTrip(v)
}

func sanitizeMap(m map[string]any, depth int) any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = sanitizeValue(item, depth+1)
	}
	return out
}

// roundTrip pushes v through encoding/json and back so the stored value is a
// plain JSON tree. Anything the encoder rejects becomes the sentinel.
func roundTrip(v any) (out any) {
	defer func() {
		if recover() != nil {
			out = Unserializable
		}
	}()
	data, err := json.Marshal(v)
	if err != nil {
		return Unserializable
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Unserializable
	}
	return out
}

// callString runs an Error or String method, treating a panic inside it as
// an unserializable value.
func callString(fn func() string) (s string) {
	defer func() {
		if recover() != nil {
			s = Unserializable
		}
	}()
	return fn()
}

func finiteOrSentinel(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Unserializable
	}
	return f
}
