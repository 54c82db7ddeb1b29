package layout

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

// Resolve recovers the segmented address of a struct field from a native pointer to it.
//
// The parent struct starts offset bytes before fieldNative. Its segmented address is looked up
// first in env's transient slot, which holds the result of the latest member access, and then in
// the persistent registry of bound objects. Resolve panics if neither knows the parent.
func Resolve(env *farptr.Env, fieldNative unsafe.Pointer, offset uintptr) segaddr.Addr {
	parent := unsafe.Add(fieldNative, -int(offset))

	addr, ok := env.Transient().Find(parent)
	if !ok {
		addr, ok = env.Registry().Find(parent)
	}

	if !ok {
		panic(errors.AssertionFailedf("the struct containing field %p at offset %d has no known segmented address", fieldNative, offset))
	}

	field := addr.AddOffset(int(offset))
	env.Logger().Debug("layout::Resolve", slog.String("Parent", addr.String()), slog.String("Field", field.String()))
	return field
}

// Field is a scalar field of type T inside a struct of type P
type Field[P, T any] struct {
	Name   string
	Offset uintptr
}

// Addr returns a Pointer to the field, given a native pointer to it
func (f Field[P, T]) Addr(env *farptr.Env, field *T) farptr.Pointer[T] {
	return farptr.FromAddr[T](Resolve(env, unsafe.Pointer(field), f.Offset))
}

// Of returns a Pointer to the field of the struct parent points at
func (f Field[P, T]) Of(parent farptr.Pointer[P]) farptr.Pointer[T] {
	return farptr.FromAddr[T](parent.Addr().AddOffset(int(f.Offset)))
}

// ArrayField is a fixed-length array of E inside a struct of type P
type ArrayField[P, E any] struct {
	Name   string
	Offset uintptr
	Len    int
}

// Addr returns a Pointer to the first element, given a native pointer to it
func (a ArrayField[P, E]) Addr(env *farptr.Env, first *E) farptr.Pointer[E] {
	return farptr.FromAddr[E](Resolve(env, unsafe.Pointer(first), a.Offset))
}

// Of returns a Pointer to the first element of the array inside the struct parent points at
func (a ArrayField[P, E]) Of(parent farptr.Pointer[P]) farptr.Pointer[E] {
	return farptr.FromAddr[E](parent.Addr().AddOffset(int(a.Offset)))
}

// Elem resolves element idx, given a native pointer to the first element. It panics if idx is out
// of range.
func (a ArrayField[P, E]) Elem(env *farptr.Env, first *E, idx int) *E {
	if idx < 0 || idx >= a.Len {
		panic(errors.AssertionFailedf("index %d is out of range for %s, which has %d elements", idx, a.Name, a.Len))
	}
	return a.Addr(env, first).Elem(env, idx)
}

// NearArray returns a NearPointer to the first element of the array. It panics if the array does
// not live in the segment S currently supplies.
func NearArray[S farptr.SegmentSource, P, E any](a ArrayField[P, E], env *farptr.Env, first *E) farptr.NearPointer[E, S] {
	addr := Resolve(env, unsafe.Pointer(first), a.Offset)

	var source S
	if seg := source.Segment(); seg != addr.Seg {
		panic(errors.AssertionFailedf("%s lives at %s, outside the current segment %04x", a.Name, addr.String(), seg))
	}
	return farptr.NewNear[E, S](addr.Off)
}
