package registry

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

// Slot is the transient reverse-lookup registry. It remembers exactly one native address and the
// segmented address last stored for it, and is meant for round trips that are strictly sequential:
// a value is stored, then the very next lookup asks for it. Storing a new entry silently replaces the
// old one.
//
// The stored native address is held as a pointer, which keeps its object reachable and unmoved until
// the next Store or Clear.
//
// A Slot is not safe for concurrent use and must not be shared between goroutines. Each goroutine
// that performs round trips needs its own Slot.
type Slot struct {
	native unsafe.Pointer
	addr   segaddr.Addr
}

// Store records addr as the segmented address of native, replacing whatever was stored before
func (s *Slot) Store(native unsafe.Pointer, addr segaddr.Addr) {
	s.native = native
	s.addr = addr
}

// Find returns the stored segmented address if native matches the last stored native address
// and the stored segmented address is not null
func (s *Slot) Find(native unsafe.Pointer) (segaddr.Addr, bool) {
	if s.native != native || s.addr.IsNull() {
		return segaddr.Null, false
	}

	return s.addr, true
}

// Lookup returns the stored segmented address for native. It panics if native is not the last stored
// native address or if the stored segmented address is null: either means that round trips were
// interleaved, which is a bug in the caller.
func (s *Slot) Lookup(native unsafe.Pointer) segaddr.Addr {
	if s.native != native {
		panic(errors.AssertionFailedf("transient lookup for %p does not match the last stored native address %p", native, s.native))
	}

	if s.addr.IsNull() {
		panic(errors.AssertionFailedf("transient lookup for %p found a null segmented address", native))
	}

	return s.addr
}

// Clear forgets the stored entry
func (s *Slot) Clear() {
	s.native = nil
	s.addr = segaddr.Null
}
