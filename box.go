// Package dyn provides a dynamically typed value container with fast
// downcasting.
//
// A Box differs from a plain any in that it pre-computes a descriptor of its
// contained type at creation time. Downcasts and type queries then reduce to
// a single pointer comparison of two already-computed descriptors.
package dyn

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/oliverbestmann/dyn/internal/assert"
)

// Box holds one value of some concrete type, erased behind a uniform handle,
// together with the Type descriptor of that value.
//
// A Box exclusively owns its contained value. Use Get, Mut or Take with a
// matching type to get at the value, and Close to release the value if it is
// never taken out. A Box must not be copied: a copy would share ownership of
// the contained value with the original.
type Box struct {
	_ noCopy

	typ *Type

	// cell points to a heap allocated value of the type described by typ.
	// nil once the value was taken out or released.
	cell unsafe.Pointer
}

// New erases a concrete value into a Box. The descriptor for T is looked up
// once here and never re-derived on later downcasts.
func New[T any](value T) *Box {
	cell := &value
	return &Box{typ: TypeFor[T](), cell: unsafe.Pointer(cell)}
}

// FromAny erases a value whose static type was already lost. The resulting
// Box behaves exactly as if it was built with New using the value's dynamic
// type. Panics for a nil interface value, which carries no type to describe.
func FromAny(value any) *Box {
	assert.True(value != nil, "cannot erase a nil interface value")

	ty := typeOf(reflect.TypeOf(value))

	cell := reflect.New(ty.Reflect)
	ty.copyIn(cell.UnsafePointer(), value)

	return &Box{typ: ty, cell: cell.UnsafePointer()}
}

// Type returns the descriptor of the contained value, or nil once the value
// was taken out or released.
func (b *Box) Type() *Type {
	return b.typ
}

// Holds checks the contained type against an already known descriptor. This
// is the cheapest possible check, a single pointer comparison, and the right
// choice in hot loops where the caller looks the descriptor up once via
// TypeFor and reuses it.
func (b *Box) Holds(t *Type) bool {
	return t != nil && b.typ == t
}

// Is reports whether the box contains a value of type T.
func Is[T any](b *Box) bool {
	return b.typ == TypeFor[T]()
}

// Get returns a copy of the contained value if it is a T.
func Get[T any](b *Box) (T, bool) {
	if !Is[T](b) {
		var zero T
		return zero, false
	}

	return *(*T)(b.cell), true
}

// Mut returns a pointer into the box's own storage if the contained value is
// a T. Mutations through the pointer are visible to all later downcasts.
func Mut[T any](b *Box) (*T, bool) {
	if !Is[T](b) {
		return nil, false
	}

	return (*T)(b.cell), true
}

// Take moves the contained value out of the box if it is a T.
//
// On a mismatch the box is left fully intact and may be retried with a
// different type or dropped as usual. On a match ownership of the value
// passes to the caller and the box becomes inert: queries report no value
// and Close will not touch the moved-out value.
func Take[T any](b *Box) (T, bool) {
	if !Is[T](b) {
		var zero T
		return zero, false
	}

	value := *(*T)(b.cell)
	b.typ = nil
	b.cell = nil

	return value, true
}

// Any returns the contained value rewrapped as a plain any, or nil once the
// value was taken out or released.
func (b *Box) Any() any {
	if b.cell == nil {
		return nil
	}

	return b.typ.pack(b.cell)
}

// Close releases the contained value. If the concrete type, or a pointer to
// it, implements io.Closer, that Close is invoked exactly once and its error
// returned. Further calls are no-ops, as is Close after a successful Take.
func (b *Box) Close() error {
	cell := b.cell
	if cell == nil {
		return nil
	}

	release := b.typ.release

	b.typ = nil
	b.cell = nil

	if release == nil {
		return nil
	}

	return release(cell)
}

// String names the contained type. The value itself is never formatted.
func (b *Box) String() string {
	if b.typ == nil {
		return "dyn.Box(consumed)"
	}

	return fmt.Sprintf("dyn.Box(%s)", b.typ.Name)
}
