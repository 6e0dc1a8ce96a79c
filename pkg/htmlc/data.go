package htmlc

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// TagName is the struct tag that renames fields when struct data is turned
// into template variables.
const TagName = "htmlc"

// Vars turns render data into template variables. Maps with string keys are
// used as they are; structs and pointers to structs are decoded field by
// field, honoring the htmlc struct tag.
func Vars(data any) (map[string]any, error) {
	switch d := data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return d, nil
	case Props:
		return d, nil
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]any{}, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct && !(v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String) {
		return nil, fmt.Errorf("render data must be a map with string keys or a struct, got %T", data)
	}

	out := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: TagName,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return nil, fmt.Errorf("decoding render data: %w", err)
	}
	return out, nil
}
