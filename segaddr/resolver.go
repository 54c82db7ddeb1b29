package segaddr

import "unsafe"

//go:generate mockgen -source resolver.go -destination ./mocks/resolver.go

// Context selects which resolution policy ToNative applies to an address
type Context uint32

const (
	// ContextPlainAccess is used when the address is read from or written to as data
	ContextPlainAccess Context = iota
	// ContextCallTarget is used when the address is the entry point of foreign code that
	// is about to be called, which may need different relocation than data does
	ContextCallTarget
)

var contextMapping = map[Context]string{
	ContextPlainAccess: "ContextPlainAccess",
	ContextCallTarget:  "ContextCallTarget",
}

func (c Context) String() string {
	return contextMapping[c]
}

// Resolver maps segmented addresses onto the native address space. It is supplied by whatever
// actually stores the bytes of the segmented address space; this package never interprets the
// result beyond handing it back to the caller.
type Resolver interface {
	// Resolve returns the native address of the byte named by addr, for plain data access
	Resolve(addr Addr) unsafe.Pointer
	// ResolveCallTarget returns the native address of the byte named by addr, when addr is
	// being used as the entry point of a foreign call
	ResolveCallTarget(addr Addr) unsafe.Pointer
}

// ResolverFuncs adapts a pair of plain resolution functions to the Resolver interface.
// CallTarget may be left nil, in which case Plain is used for both contexts.
type ResolverFuncs struct {
	Plain      func(seg, off uint16) unsafe.Pointer
	CallTarget func(seg, off uint16) unsafe.Pointer
}

var _ Resolver = ResolverFuncs{}

func (f ResolverFuncs) Resolve(addr Addr) unsafe.Pointer {
	return f.Plain(addr.Seg, addr.Off)
}

func (f ResolverFuncs) ResolveCallTarget(addr Addr) unsafe.Pointer {
	if f.CallTarget == nil {
		return f.Plain(addr.Seg, addr.Off)
	}
	return f.CallTarget(addr.Seg, addr.Off)
}

// ToNative translates addr into a native address using the resolver policy selected by ctx.
//
// The null address resolves to nil without consulting the resolver unless nonNull is set. Handles
// that are known to point at real data in segment 0 (the interrupt vector table, for instance)
// carry nonNull so that 0000:0000 still resolves.
func ToNative(resolver Resolver, addr Addr, ctx Context, nonNull bool) unsafe.Pointer {
	if !nonNull && addr.IsNull() {
		return nil
	}

	if ctx == ContextCallTarget {
		return resolver.ResolveCallTarget(addr)
	}
	return resolver.Resolve(addr)
}
