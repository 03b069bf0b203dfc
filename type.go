package dyn

import (
	"cmp"
	"io"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync/atomic"
	"unsafe"
)

// TypeId is a small sequential id assigned to each distinct concrete type in
// registration order. Ids are only stable within one run of the program.
type TypeId uint32

// Type describes one concrete type. There is exactly one Type instance per
// distinct concrete type in the whole program, so two Type pointers compare
// equal if, and only if, they describe the same type. That pointer comparison
// is the whole cost of a type check on a Box.
type Type struct {
	// Name of the type, as given by reflect.Type.String.
	Name string

	// Reflect is the reflect.Type this descriptor was built from.
	Reflect reflect.Type

	// Size of the type in bytes.
	Size uintptr

	// Align of the type in bytes.
	Align int

	// The Id of the type.
	Id TypeId

	// pack rewraps a pointer to a value of this type as an any.
	pack func(ptr unsafe.Pointer) any

	// copyIn copies a value boxed in an any into the cell at ptr.
	copyIn func(ptr unsafe.Pointer, value any)

	// release dispatches to the values io.Closer.
	// nil for types that do not implement io.Closer.
	release func(ptr unsafe.Pointer) error
}

func (t *Type) String() string {
	return t.Name
}

// Closeable returns true if values of this type carry an io.Closer that
// Box.Close will dispatch to.
func (t *Type) Closeable() bool {
	return t.release != nil
}

// TypeFor returns the unique Type descriptor for T, registering it on first
// use. Every later call for the same T returns the same pointer.
func TypeFor[T any]() *Type {
	return typeOf(reflect.TypeFor[T]())
}

var registeredTypes atomic.Pointer[map[unsafe.Pointer]*Type]

func init() {
	// initialize the lookup table
	registeredTypes.Store(&map[unsafe.Pointer]*Type{})
}

func typeOf(reflectType reflect.Type) *Type {
	ptrToType := abiTypePointerTo(reflectType)

	if cached, ok := (*registeredTypes.Load())[ptrToType]; ok {
		return cached
	}

	return ensureType(ptrToType, reflectType)
}

func ensureType(ptrToType unsafe.Pointer, reflectType reflect.Type) *Type {
	for {
		previousTypes := registeredTypes.Load()
		if cached, ok := (*previousTypes)[ptrToType]; ok {
			return cached
		}

		newTypeId := TypeId(len(*previousTypes) + 1)

		newType := makeType(newTypeId, reflectType)

		newTypes := maps.Clone(*previousTypes)
		newTypes[ptrToType] = newType

		if registeredTypes.CompareAndSwap(previousTypes, &newTypes) {
			slog.Debug(
				"New type registered",
				slog.String("name", newType.Name),
				slog.Int("id", int(newType.Id)),
			)

			return newType
		}
	}
}

var tyCloser = reflect.TypeFor[io.Closer]()

func makeType(id TypeId, reflectType reflect.Type) *Type {
	ty := &Type{
		Id:      id,
		Reflect: reflectType,
		Name:    reflectType.String(),
		Size:    reflectType.Size(),
		Align:   reflectType.Align(),
	}

	ty.pack = func(ptr unsafe.Pointer) any {
		return reflect.NewAt(reflectType, ptr).Elem().Interface()
	}

	ty.copyIn = func(ptr unsafe.Pointer, value any) {
		reflect.NewAt(reflectType, ptr).Elem().Set(reflect.ValueOf(value))
	}

	switch {
	case reflectType.Implements(tyCloser):
		ty.release = func(ptr unsafe.Pointer) error {
			return reflect.NewAt(reflectType, ptr).Elem().Interface().(io.Closer).Close()
		}

	case reflect.PointerTo(reflectType).Implements(tyCloser):
		ty.release = func(ptr unsafe.Pointer) error {
			return reflect.NewAt(reflectType, ptr).Interface().(io.Closer).Close()
		}
	}

	return ty
}

func abiTypePointerTo(t reflect.Type) unsafe.Pointer {
	type eface struct {
		typ, val unsafe.Pointer
	}

	// a reflect.Type is backed by an *rType. The rType contains a abi.Type as
	// its first value. This means, that a *rType can be re-interpreted as *abi.Type
	return (*eface)(unsafe.Pointer(&t)).val
}

// Types returns a snapshot of all type descriptors registered so far, in
// registration order.
func Types() []*Type {
	types := slices.Collect(maps.Values(*registeredTypes.Load()))

	slices.SortFunc(types, func(a, b *Type) int {
		return cmp.Compare(a.Id, b.Id)
	})

	return types
}
