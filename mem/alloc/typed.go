package alloc

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

// Make allocates a zeroed T inside the allocator and returns a pointer to it
// together with the reference to pass to Free. T must not contain Go
// pointers: the collector does not scan allocator memory.
func Make[T any](a *Allocator) (*T, Ref, error) {
	var zero T
	if err := noPointers(reflect.TypeOf(zero)); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrPointerType, err)
	}
	size := int(unsafe.Sizeof(zero))
	ref, buf, err := a.Alloc(max(size, 1))
	if err != nil {
		return nil, 0, err
	}
	if uintptr(ref)%unsafe.Alignof(zero) != 0 {
		_ = a.Free(ref)
		return nil, 0, fmt.Errorf("alloc: payload %#x not aligned for %T", uintptr(ref), zero)
	}
	clear(buf[:size])
	return (*T)(unsafe.Pointer(unsafe.SliceData(buf))), ref, nil
}

func noPointers(t reflect.Type) error {
	if t == nil {
		return errors.New("interface type has no static layout")
	}
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return noPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if err := noPointers(t.Field(i).Type); err != nil {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("type %s contains pointer-like data", t)
	}
}
