package dyn

import (
	"unsafe"

	"github.com/oliverbestmann/dyn/internal/assert"
)

// Described pairs a typed value with its Type descriptor, so the descriptor
// does not need to be looked up again when the value is later viewed
// dynamically.
type Described[T any] struct {
	// private so a caller can not invalidate it
	typ *Type

	// Data is the described value.
	Data T
}

// Describe builds a Described value. The descriptor for T is looked up once
// here.
func Describe[T any](value T) Described[T] {
	return Described[T]{typ: TypeFor[T](), Data: value}
}

// Type returns the descriptor of the described value.
func (d *Described[T]) Type() *Type {
	return d.typ
}

// Dynamic returns a Box view of the described value. The view aliases Data:
// downcasts observe it and mutations through Mut are visible in Data. The
// view borrows the value rather than owning it, so Close must not be called
// on it, and Take through it only copies the value out.
//
// Panics for a zero Described that was not built with Describe.
func (d *Described[T]) Dynamic() *Box {
	assert.NotNil(d.typ, "descriptor of the described value")

	return &Box{typ: d.typ, cell: unsafe.Pointer(&d.Data)}
}
