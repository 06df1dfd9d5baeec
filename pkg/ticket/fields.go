// Package ticket maps OTRS tickets and articles to and from the flat
// GenericInterface record shape.
//
// Records keep schema fields and dynamic fields ("DynamicField_<Name>") in
// two separate maps. Setting a prefixed name always lands in the dynamic map,
// so the two never overlap.
package ticket

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/goatkit/otrsclient/internal/constants"
)

// Fields is a GenericInterface record.
type Fields map[string]any

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Has reports whether name is present.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// DynamicField is the {Name, Value} form the service expects in create and
// update requests.
type DynamicField struct {
	Name  string `json:"Name" yaml:"Name"`
	Value any    `json:"Value" yaml:"Value"`
}

// IsDynamicFieldKey reports whether key carries the dynamic field prefix.
func IsDynamicFieldKey(key string) bool {
	return strings.HasPrefix(key, constants.DynamicFieldPrefix)
}

// splitDynamic separates prefixed keys from schema fields.
func splitDynamic(in Fields) (fields, dynamic Fields) {
	fields, dynamic = Fields{}, Fields{}
	for k, v := range in {
		if IsDynamicFieldKey(k) {
			dynamic[k] = v
			continue
		}
		fields[k] = v
	}
	return fields, dynamic
}

// dynamicFieldList renders dynamic fields sorted by name. With notNull,
// empty values are skipped.
func dynamicFieldList(dynamic Fields, notNull bool) []DynamicField {
	keys := make([]string, 0, len(dynamic))
	for k := range dynamic {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DynamicField, 0, len(keys))
	for _, k := range keys {
		v := dynamic[k]
		if notNull && isEmpty(v) {
			continue
		}
		out = append(out, DynamicField{Name: strings.TrimPrefix(k, constants.DynamicFieldPrefix), Value: v})
	}
	return out
}

// isEmpty treats nil, zero numbers, false and empty strings, slices and maps
// as empty.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
