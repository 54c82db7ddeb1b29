package farptr

import (
	"unsafe"

	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

// Pointer is a far pointer to a T living in segmented memory.
//
// A Pointer is a value: arithmetic returns a new Pointer and never changes the receiver. The zero
// value is the null pointer. A Pointer may hold a reference to an Object, in which case it keeps
// the object's binding alive until Release is called on it.
type Pointer[T any] struct {
	handle
}

// New creates a Pointer from a segment and an offset
func New[T any](seg, off uint16) Pointer[T] {
	return Pointer[T]{handle{addr: segaddr.Make(seg, off)}}
}

// Null returns the null Pointer
func Null[T any]() Pointer[T] {
	return Pointer[T]{}
}

// NewNonNull creates a Pointer that never compares equal to null, even at 0000:0000
func NewNonNull[T any](seg, off uint16) Pointer[T] {
	return Pointer[T]{handle{addr: segaddr.Make(seg, off), nonNull: true}}
}

// FromAddr creates a Pointer from a segmented address
func FromAddr[T any](addr segaddr.Addr) Pointer[T] {
	return Pointer[T]{handle{addr: addr}}
}

// FromFP32 creates a Pointer from a packed 32-bit far pointer value
func FromFP32[T any](value uint32) Pointer[T] {
	return Pointer[T]{handle{addr: segaddr.FromFP32(value)}}
}

// NewOwned creates a Pointer to the segmented address of obj. The Pointer takes over one of
// obj's references, which Release gives back.
func NewOwned[T any](obj Object) Pointer[T] {
	return Pointer[T]{handle{addr: obj.Addr(), obj: obj}}
}

// Seg returns the segment. It panics if the Pointer holds an object, which needs SegFor instead.
func (p Pointer[T]) Seg() uint16 { return p.mutableAddr().Seg }

// Off returns the offset. It panics if the Pointer holds an object, which needs OffFor instead.
func (p Pointer[T]) Off() uint16 { return p.mutableAddr().Off }

// SegFor returns the segment and records owner as an observer of the held object
func (p Pointer[T]) SegFor(owner any) uint16 { return p.segFor(owner) }

// OffFor returns the offset and records owner as an observer of the held object
func (p Pointer[T]) OffFor(owner any) uint16 { return p.offFor(owner) }

// Add returns a Pointer n elements past p. Only the offset moves, wrapping at 64k; the result
// holds no object.
func (p Pointer[T]) Add(n int) Pointer[T] {
	return Pointer[T]{p.moved(n * sizeOf[T]())}
}

// Sub returns a Pointer n elements before p
func (p Pointer[T]) Sub(n int) Pointer[T] {
	return p.Add(-n)
}

// Inc returns a Pointer to the next element
func (p Pointer[T]) Inc() Pointer[T] { return p.Add(1) }

// Dec returns a Pointer to the previous element
func (p Pointer[T]) Dec() Pointer[T] { return p.Add(-1) }

// Index returns a Pointer to element i, counting from p. There is no bounds checking.
func (p Pointer[T]) Index(i int) Pointer[T] { return p.Add(i) }

// Adjust returns p with its address normalized. See segaddr.Addr.Adjust.
func (p Pointer[T]) Adjust() Pointer[T] {
	return Pointer[T]{p.adjust()}
}

// Get resolves p to a native pointer. It returns nil for a null Pointer, and panics if T does not
// have a flat layout.
func (p Pointer[T]) Get(env *Env) *T {
	requireFlat[T]()
	return (*T)(p.resolve(env))
}

// Load reads the element p points at
func (p Pointer[T]) Load(env *Env) T {
	return *p.Get(env)
}

// Store writes the element p points at
func (p Pointer[T]) Store(env *Env, value T) {
	*p.Get(env) = value
}

// Member resolves p for member access. In addition to returning the native pointer, it leaves p's
// address in env's transient slot so that AddrOf can recover it from the returned pointer.
func (p Pointer[T]) Member(env *Env) *T {
	requireFlat[T]()
	return (*T)(p.member(env))
}

// Elem resolves element i for member access. See Member.
func (p Pointer[T]) Elem(env *Env, i int) *T {
	return p.Index(i).Member(env)
}

// Clone returns a copy of p holding its own reference to p's object, if any
func (p Pointer[T]) Clone() Pointer[T] {
	p.retain()
	return p
}

// Release gives back p's reference to its object, if any
func (p Pointer[T]) Release() error {
	return p.release()
}

// Void converts p into a void pointer. The result holds its own reference to p's object, if any.
func (p Pointer[T]) Void() VoidPointer {
	return VoidPointer{p.shared()}
}

// ConstVoid converts p into a const void pointer holding its own reference to p's object, if any
func (p Pointer[T]) ConstVoid() ConstVoidPointer {
	return ConstVoidPointer{p.shared()}
}

// AddrOf recovers the Pointer for a native pointer that was just returned by Member, Elem or a
// Symbol. It panics if value is not the most recent member access in env.
func AddrOf[T any](env *Env, value *T) Pointer[T] {
	return FromAddr[T](env.transient.Lookup(unsafe.Pointer(value)))
}
