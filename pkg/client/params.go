package client

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Params is implemented by parameter structs that bind their own fields as
// positional query arguments, in placeholder order ($1, $2, ...).
type Params interface {
	Params() []any
}

// NoParams is the parameter type for queries without placeholders.
type NoParams struct{}

// Params implements Params.
func (NoParams) Params() []any { return nil }

var (
	// ErrNilParams is returned when parameters are a nil pointer.
	ErrNilParams = errors.New("nil params")

	// ErrUnsupportedParams is returned when parameters are neither a Params
	// implementation nor a struct.
	ErrUnsupportedParams = errors.New("params must be a struct or implement Params")
)

// fieldPaths caches the index paths of bindable fields per struct type.
var fieldPaths sync.Map // reflect.Type -> [][]int

// Args returns the positional arguments for v. Params implementations bind
// themselves; anything else goes through StructArgs.
func Args(v any) ([]any, error) {
	if p, ok := v.(Params); ok {
		return p.Params(), nil
	}
	return StructArgs(v)
}

// StructArgs returns the exported fields of struct v (or *struct) in
// declaration order. Fields tagged `db:"-"` are skipped and embedded structs
// are flattened in place.
func StructArgs(v any) ([]any, error) {
	if v == nil {
		return nil, ErrNilParams
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrNilParams
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedParams, rv.Type())
	}

	paths := structPaths(rv.Type())
	args := make([]any, len(paths))
	for i, path := range paths {
		args[i] = rv.FieldByIndex(path).Interface()
	}
	return args, nil
}

func structPaths(rt reflect.Type) [][]int {
	if v, ok := fieldPaths.Load(rt); ok {
		return v.([][]int)
	}
	paths := appendPaths(nil, rt, nil)
	fieldPaths.Store(rt, paths)
	return paths
}

func appendPaths(paths [][]int, rt reflect.Type, prefix []int) [][]int {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Tag.Get("db") == "-" {
			continue
		}

		path := make([]int, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = i

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			paths = appendPaths(paths, f.Type, path)
			continue
		}
		if !f.IsExported() {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}
