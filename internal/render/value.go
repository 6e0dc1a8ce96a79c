package render

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// writeValue writes the text form of v. Numbers and booleans never contain
// special characters and skip escaping.
func (b *Buffer) writeValue(v any, escaped bool) {
	text := b.writeString
	if escaped {
		text = b.writeEscapedString
	}

	switch v := v.(type) {
	case nil:
	case string:
		text(v)
	case Raw:
		b.writeString(v.s)
	case []byte:
		text(string(v))
	case bool:
		b.writeString(strconv.FormatBool(v))
	case int:
		b.writeInt(int64(v))
	case int8:
		b.writeInt(int64(v))
	case int16:
		b.writeInt(int64(v))
	case int32:
		b.writeInt(int64(v))
	case int64:
		b.writeInt(v)
	case uint:
		b.writeUint(uint64(v))
	case uint8:
		b.writeUint(uint64(v))
	case uint16:
		b.writeUint(uint64(v))
	case uint32:
		b.writeUint(uint64(v))
	case uint64:
		b.writeUint(v)
	case float32:
		b.writeFloat(float64(v), 32)
	case float64:
		b.writeFloat(v, 64)
	case fmt.Stringer:
		text(v.String())
	case error:
		text(v.Error())
	default:
		text(fmt.Sprint(v))
	}
}

func (b *Buffer) writeInt(n int64) {
	b.reserve(20)
	b.buf.Write(strconv.AppendInt(b.buf.AvailableBuffer(), n, 10))
}

func (b *Buffer) writeUint(n uint64) {
	b.reserve(20)
	b.buf.Write(strconv.AppendUint(b.buf.AvailableBuffer(), n, 10))
}

func (b *Buffer) writeFloat(f float64, bits int) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		b.writeString(strconv.FormatFloat(f, 'g', -1, bits))
		return
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	b.writeString(s)
}

// truthy interprets a condition value. Only booleans and nil are accepted.
func truthy(v any) (bool, bool) {
	switch v := v.(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	default:
		return false, false
	}
}

// equal compares match values. Numbers compare by value across types.
func equal(a, b any) bool {
	if x, ok := asInt(a); ok {
		if y, ok := asInt(b); ok {
			return x == y
		}
	}
	if x, ok := asFloat(a); ok {
		if y, ok := asFloat(b); ok {
			return x == y
		}
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func asInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	if n, ok := asInt(v); ok {
		return float64(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
