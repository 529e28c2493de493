package repository

import "reflect"

// isNilValue catches typed nils (a nil *string or nil map stored in an any),
// which callers use to mean "not provided".
func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
