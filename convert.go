package farptr

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Byte is satisfied by exactly int8 and uint8. A pointer to a byte type may alias any other pointer
// type. Named types built on them, such as an enum declared as uint8, are not byte types.
type Byte interface {
	int8 | uint8
}

// The conversions below are the implicit ones: a pointer converts to or from void, or to or from a
// byte type, as long as constness is not dropped. Each one exists only for combinations that obey
// that rule, so a forbidden conversion fails to compile. The byte conversions cannot reject a byte
// type converting to itself at compile time, so they panic on it instead. Explicit casts skip the
// rule.
//
// Every conversion and cast returns a handle holding its own reference to the source's object, if
// any. Both handles must be released.

// FromVoid converts a void pointer into a typed pointer
func FromVoid[T any](p VoidPointer) Pointer[T] {
	return Pointer[T]{p.shared()}
}

// FromVoidConst converts a void pointer into a const typed pointer
func FromVoidConst[T any](p VoidPointer) ConstPointer[T] {
	return ConstPointer[T]{p.shared()}
}

// FromConstVoid converts a const void pointer into a const typed pointer
func FromConstVoid[T any](p ConstVoidPointer) ConstPointer[T] {
	return ConstPointer[T]{p.shared()}
}

// ToBytes converts a typed pointer into a byte pointer
func ToBytes[B Byte, T any](p Pointer[T]) Pointer[B] {
	requireConversion[Pointer[T], Pointer[B]]()
	return Pointer[B]{p.shared()}
}

// ToConstBytes converts a const typed pointer into a const byte pointer
func ToConstBytes[B Byte, T any](p ConstPointer[T]) ConstPointer[B] {
	requireConversion[ConstPointer[T], ConstPointer[B]]()
	return ConstPointer[B]{p.shared()}
}

// FromBytes converts a byte pointer into a typed pointer
func FromBytes[T any, B Byte](p Pointer[B]) Pointer[T] {
	requireConversion[Pointer[B], Pointer[T]]()
	return Pointer[T]{p.shared()}
}

// FromConstBytes converts a const byte pointer into a const typed pointer
func FromConstBytes[T any, B Byte](p ConstPointer[B]) ConstPointer[T] {
	requireConversion[ConstPointer[B], ConstPointer[T]]()
	return ConstPointer[T]{p.shared()}
}

// Cast reinterprets p as a pointer to another type. The address, held object and non-null flag
// are kept.
func Cast[T1, T0 any](p Pointer[T0]) Pointer[T1] {
	return Pointer[T1]{p.shared()}
}

// CastConst reinterprets a const pointer as a const pointer to another type
func CastConst[T1, T0 any](p ConstPointer[T0]) ConstPointer[T1] {
	return ConstPointer[T1]{p.shared()}
}

// AsConst reinterprets p as a const pointer, possibly to another type
func AsConst[T1, T0 any](p Pointer[T0]) ConstPointer[T1] {
	return ConstPointer[T1]{p.shared()}
}

// ConstCast drops the constness of p. Writes through the result are never copied back to a const
// bound object.
func ConstCast[T1, T0 any](p ConstPointer[T0]) Pointer[T1] {
	return Pointer[T1]{p.shared()}
}

// elemKind describes the element a handle type points at
type elemKind struct {
	typ     reflect.Type
	isVoid  bool
	isConst bool
}

func (k elemKind) isByte() bool {
	if k.isVoid {
		return false
	}

	return k.typ == int8Type || k.typ == uint8Type
}

var (
	int8Type  = reflect.TypeOf(int8(0))
	uint8Type = reflect.TypeOf(uint8(0))
)

// Handle is satisfied by the far pointer types of this package
type Handle interface {
	Addresser
	kind() elemKind
}

func (Pointer[T]) kind() elemKind {
	return elemKind{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

func (ConstPointer[T]) kind() elemKind {
	return elemKind{typ: reflect.TypeOf((*T)(nil)).Elem(), isConst: true}
}

func (VoidPointer) kind() elemKind {
	return elemKind{isVoid: true}
}

func (ConstVoidPointer) kind() elemKind {
	return elemKind{isVoid: true, isConst: true}
}

// CanConvert reports whether a handle of type From converts implicitly into a handle of type To:
// one side must be void or a byte type, the two must differ, and constness must not be dropped.
func CanConvert[From, To Handle]() bool {
	var from From
	var to To
	return allowConversion(from.kind(), to.kind())
}

func allowConversion(from, to elemKind) bool {
	if !(from.isVoid || to.isVoid || from.isByte() || to.isByte()) {
		return false
	}

	if from == to {
		return false
	}

	return to.isConst || !from.isConst
}

func requireConversion[From, To Handle]() {
	if !CanConvert[From, To]() {
		var from From
		var to To
		panic(errors.AssertionFailedf("%T does not convert implicitly to %T", from, to))
	}
}
