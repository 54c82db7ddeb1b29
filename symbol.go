package farptr

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

// Symbol is a variable that lives in segmented memory at an address decided by whatever loads the
// foreign image. The loader patches the address through Ref; everyone else reads the variable
// through Get.
//
// A Symbol must not be copied after its address has been patched.
type Symbol[T any] struct {
	ptr Pointer[T]
}

// Ref returns the location of the symbol's address, for the loader to patch
func (s *Symbol[T]) Ref() *segaddr.Addr {
	return &s.ptr.addr
}

// Get resolves the variable. AddrOf recovers the symbol's Pointer from the result.
func (s *Symbol[T]) Get(env *Env) *T {
	return s.ptr.Member(env)
}

// Addr returns a Pointer to the variable
func (s *Symbol[T]) Addr() Pointer[T] {
	return s.ptr
}

// ArraySymbol is an array that lives in segmented memory at an address decided by whatever loads
// the foreign image
type ArraySymbol[T any] struct {
	ptr    Pointer[T]
	maxLen int
}

// NewArraySymbol creates an ArraySymbol holding maxLen elements. A maxLen of 0 disables the bounds
// check in Elem.
func NewArraySymbol[T any](maxLen int) *ArraySymbol[T] {
	return &ArraySymbol[T]{maxLen: maxLen}
}

// Ref returns the location of the array's address, for the loader to patch
func (s *ArraySymbol[T]) Ref() *segaddr.Addr {
	return &s.ptr.addr
}

// Len returns the declared length, or 0 if the array is unbounded
func (s *ArraySymbol[T]) Len() int { return s.maxLen }

// Elem resolves element idx. It panics if the array is bounded and idx is out of range.
func (s *ArraySymbol[T]) Elem(env *Env, idx int) *T {
	if s.maxLen != 0 && idx >= s.maxLen {
		panic(errors.AssertionFailedf("index %d is out of range for an array symbol of length %d", idx, s.maxLen))
	}
	return s.ptr.Elem(env, idx)
}

// Addr returns a Pointer to the first element
func (s *ArraySymbol[T]) Addr() Pointer[T] {
	return s.ptr
}
