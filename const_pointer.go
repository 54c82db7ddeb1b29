package farptr

import (
	"unsafe"

	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

// ConstPointer is a far pointer to a T that must not be modified through it. There is no implicit
// way back to a Pointer: ConstCast is the only path.
type ConstPointer[T any] struct {
	handle
}

// NewConst creates a ConstPointer from a segment and an offset
func NewConst[T any](seg, off uint16) ConstPointer[T] {
	return ConstPointer[T]{handle{addr: segaddr.Make(seg, off)}}
}

// ConstFromAddr creates a ConstPointer from a segmented address
func ConstFromAddr[T any](addr segaddr.Addr) ConstPointer[T] {
	return ConstPointer[T]{handle{addr: addr}}
}

// NewOwnedConst creates a ConstPointer to the segmented address of obj, taking over one of obj's
// references
func NewOwnedConst[T any](obj Object) ConstPointer[T] {
	return ConstPointer[T]{handle{addr: obj.Addr(), obj: obj}}
}

// Seg returns the segment. A const object is never written back, so no owner is needed.
func (p ConstPointer[T]) Seg() uint16 { return p.addr.Seg }

// Off returns the offset
func (p ConstPointer[T]) Off() uint16 { return p.addr.Off }

// SegFor returns the segment and records owner as an observer of the held object
func (p ConstPointer[T]) SegFor(owner any) uint16 { return p.segFor(owner) }

// OffFor returns the offset and records owner as an observer of the held object
func (p ConstPointer[T]) OffFor(owner any) uint16 { return p.offFor(owner) }

// Add returns a ConstPointer n elements past p; the result holds no object
func (p ConstPointer[T]) Add(n int) ConstPointer[T] {
	return ConstPointer[T]{p.moved(n * sizeOf[T]())}
}

// Sub returns a ConstPointer n elements before p
func (p ConstPointer[T]) Sub(n int) ConstPointer[T] { return p.Add(-n) }

// Index returns a ConstPointer to element i, counting from p
func (p ConstPointer[T]) Index(i int) ConstPointer[T] { return p.Add(i) }

// Adjust returns p with its address normalized
func (p ConstPointer[T]) Adjust() ConstPointer[T] {
	return ConstPointer[T]{p.adjust()}
}

// Load reads the element p points at. It panics if T does not have a flat layout.
func (p ConstPointer[T]) Load(env *Env) T {
	requireFlat[T]()
	return *(*T)(p.resolve(env))
}

// LoadAt reads element i, counting from p
func (p ConstPointer[T]) LoadAt(env *Env, i int) T {
	return p.Index(i).Load(env)
}

// Member resolves p for member access, leaving p's address in env's transient slot so that
// AddrOfConst can recover it. The returned pointer must only be read through.
func (p ConstPointer[T]) Member(env *Env) *T {
	requireFlat[T]()
	return (*T)(p.member(env))
}

// Elem resolves element i for member access. See Member.
func (p ConstPointer[T]) Elem(env *Env, i int) *T {
	return p.Index(i).Member(env)
}

// Clone returns a copy of p holding its own reference to p's object, if any
func (p ConstPointer[T]) Clone() ConstPointer[T] {
	p.retain()
	return p
}

// Release gives back p's reference to its object, if any
func (p ConstPointer[T]) Release() error {
	return p.release()
}

// Void converts p into a const void pointer holding its own reference to p's object, if any
func (p ConstPointer[T]) Void() ConstVoidPointer {
	return ConstVoidPointer{p.shared()}
}

// AddrOfConst recovers the ConstPointer for a native pointer that was just returned by a const
// Member or Elem
func AddrOfConst[T any](env *Env, value *T) ConstPointer[T] {
	return ConstFromAddr[T](env.transient.Lookup(unsafe.Pointer(value)))
}
