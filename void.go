package farptr

import (
	"unsafe"

	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

// VoidPointer is an untyped far pointer. Arithmetic on it moves by bytes.
type VoidPointer struct {
	handle
}

// MakeFP creates a VoidPointer from a segment and an offset
func MakeFP(seg, off uint16) VoidPointer {
	return VoidPointer{handle{addr: segaddr.Make(seg, off)}}
}

// MakeFPNonNull creates a VoidPointer that never compares equal to null, even at 0000:0000
func MakeFPNonNull(seg, off uint16) VoidPointer {
	return VoidPointer{handle{addr: segaddr.Make(seg, off), nonNull: true}}
}

// VoidFromAddr creates a VoidPointer from a segmented address
func VoidFromAddr(addr segaddr.Addr) VoidPointer {
	return VoidPointer{handle{addr: addr}}
}

// Seg returns the segment. It panics if the pointer holds an object, which needs SegFor instead.
func (p VoidPointer) Seg() uint16 { return p.mutableAddr().Seg }

// Off returns the offset. It panics if the pointer holds an object, which needs OffFor instead.
func (p VoidPointer) Off() uint16 { return p.mutableAddr().Off }

// SegFor returns the segment and records owner as an observer of the held object
func (p VoidPointer) SegFor(owner any) uint16 { return p.segFor(owner) }

// OffFor returns the offset and records owner as an observer of the held object
func (p VoidPointer) OffFor(owner any) uint16 { return p.offFor(owner) }

// Add returns a VoidPointer n bytes past p; the result holds no object
func (p VoidPointer) Add(n int) VoidPointer {
	return VoidPointer{p.moved(n)}
}

// Adjust returns p with its address normalized
func (p VoidPointer) Adjust() VoidPointer {
	return VoidPointer{p.adjust()}
}

// Same returns true if other points at exactly the same segment:offset as p
func (p VoidPointer) Same(other Addresser) bool {
	return p.addr == other.Addr()
}

// Native resolves p to a native address, or nil for a null pointer
func (p VoidPointer) Native(env *Env) unsafe.Pointer {
	return p.resolve(env)
}

// Bytes returns a native view of n bytes starting at p
func (p VoidPointer) Bytes(env *Env, n int) []byte {
	native := p.resolve(env)
	if native == nil {
		return nil
	}
	return unsafe.Slice((*byte)(native), n)
}

// Const converts p into a const void pointer holding its own reference to p's object, if any
func (p VoidPointer) Const() ConstVoidPointer {
	return ConstVoidPointer{p.shared()}
}

// Clone returns a copy of p holding its own reference to p's object, if any
func (p VoidPointer) Clone() VoidPointer {
	p.retain()
	return p
}

// Release gives back p's reference to its object, if any
func (p VoidPointer) Release() error {
	return p.release()
}

// ConstVoidPointer is an untyped far pointer to memory that must not be modified through it
type ConstVoidPointer struct {
	handle
}

// Seg returns the segment
func (p ConstVoidPointer) Seg() uint16 { return p.addr.Seg }

// Off returns the offset
func (p ConstVoidPointer) Off() uint16 { return p.addr.Off }

// SegFor returns the segment and records owner as an observer of the held object
func (p ConstVoidPointer) SegFor(owner any) uint16 { return p.segFor(owner) }

// OffFor returns the offset and records owner as an observer of the held object
func (p ConstVoidPointer) OffFor(owner any) uint16 { return p.offFor(owner) }

// Add returns a ConstVoidPointer n bytes past p; the result holds no object
func (p ConstVoidPointer) Add(n int) ConstVoidPointer {
	return ConstVoidPointer{p.moved(n)}
}

// Adjust returns p with its address normalized
func (p ConstVoidPointer) Adjust() ConstVoidPointer {
	return ConstVoidPointer{p.adjust()}
}

// Native resolves p to a native address, or nil for a null pointer. The memory must only be read.
func (p ConstVoidPointer) Native(env *Env) unsafe.Pointer {
	return p.resolve(env)
}

// Same returns true if other points at exactly the same segment:offset as p
func (p ConstVoidPointer) Same(other Addresser) bool {
	return p.addr == other.Addr()
}

// Bytes returns a native view of n bytes starting at p. The view must only be read.
func (p ConstVoidPointer) Bytes(env *Env, n int) []byte {
	native := p.resolve(env)
	if native == nil {
		return nil
	}
	return unsafe.Slice((*byte)(native), n)
}

// Clone returns a copy of p holding its own reference to p's object, if any
func (p ConstVoidPointer) Clone() ConstVoidPointer {
	p.retain()
	return p
}

// Release gives back p's reference to its object, if any
func (p ConstVoidPointer) Release() error {
	return p.release()
}
