package lang

import (
	"reflect"
)

// Decodable lets a constructed object describe how to rebuild itself: the
// symbol path it was built from and its field mapping. [Decode] renders
// such objects back to a $model form.
type Decodable interface {
	DecodeModel() (symbol string, args map[string]any)
}

// Decode unparses a node while coercing values foreign to markup formats:
// objects implementing [Decodable] become $model mappings, typed slices
// and maps become plain sequences and mappings, and sized numbers widen to
// int or float64.
func Decode(node Node) any {
	u := unparser{leaf: decodeValue}

	return u.unparse(node)
}

func decodeValue(value any) any {
	switch v := value.(type) {
	case nil, bool, int, float64, string:
		return v

	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, decodeValue(item))
		}

		return out

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = decodeValue(item)
		}

		return out

	case Decodable:
		symbol, args := v.DecodeModel()

		return map[string]any{
			DirectivePrefix + "model": symbol,
			DirectivePrefix + "args":  decodeValue(args).(map[string]any),
		}
	}

	return decodeReflected(reflect.ValueOf(value))
}

func decodeReflected(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}

		return decodeValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, decodeValue(rv.Index(i).Interface()))
		}

		return out

	case reflect.Map:
		out := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			out[formatScalar(key.Interface())] = decodeValue(
				rv.MapIndex(key).Interface(),
			)
		}

		return out

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return int(rv.Uint())

	case reflect.Float32, reflect.Float64:
		return rv.Float()

	case reflect.String:
		return rv.String()

	case reflect.Bool:
		return rv.Bool()

	default:
		return rv.Interface()
	}
}
