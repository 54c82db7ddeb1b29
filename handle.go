package farptr

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

// Object is a native object that has been given a segmented address and is kept alive while
// handles to it are outstanding. The farobj package provides the implementation.
type Object interface {
	// Addr returns the segmented address the object is bound to
	Addr() segaddr.Addr
	// Ref records that owner has observed the object's segmented address
	Ref(owner any)
	// Retain adds a reference to the object
	Retain()
	// Release drops a reference to the object. Dropping the last reference ends the binding.
	Release() error
	// IsConst returns true if the object is never written back to native memory
	IsConst() bool
}

// Addresser is implemented by every handle type
type Addresser interface {
	Addr() segaddr.Addr
}

// handle is the state shared by every far pointer type
type handle struct {
	addr    segaddr.Addr
	obj     Object
	nonNull bool
}

// Addr returns the segmented address the handle points at
func (h handle) Addr() segaddr.Addr { return h.addr }

// FP32 returns the segmented address packed into a 32-bit far pointer value
func (h handle) FP32() uint32 { return h.addr.FP32() }

// IsNull returns true if the handle's address is 0000:0000 and it was not created as non-null
func (h handle) IsNull() bool {
	return !h.nonNull && h.addr.IsNull()
}

// IsNonNull returns true if the handle was created as non-null
func (h handle) IsNonNull() bool { return h.nonNull }

// Object returns the native object this handle holds a reference to, if any
func (h handle) Object() Object { return h.obj }

func (h handle) String() string {
	return h.addr.String()
}

func (h handle) segFor(owner any) uint16 {
	if h.obj == nil {
		panic(errors.AssertionFailedf("owner form used on handle %s, which holds no object", h.addr.String()))
	}
	h.obj.Ref(owner)
	return h.addr.Seg
}

func (h handle) offFor(owner any) uint16 {
	if h.obj == nil {
		panic(errors.AssertionFailedf("owner form used on handle %s, which holds no object", h.addr.String()))
	}
	h.obj.Ref(owner)
	return h.addr.Off
}

// mutableAddr returns the address of a handle whose bound object may be written back. Callers
// must use the owner form so the object knows who observed it.
func (h handle) mutableAddr() segaddr.Addr {
	if h.obj != nil {
		panic(errors.AssertionFailedf("handle %s holds a writable object: use the owner form to read its address", h.addr.String()))
	}
	return h.addr
}

func (h handle) retain() {
	if h.obj != nil {
		h.obj.Retain()
	}
}

// shared returns h after adding a reference to its object, for a new handle that will be released
// separately
func (h handle) shared() handle {
	h.retain()
	return h
}

func (h handle) release() error {
	if h.obj == nil {
		return nil
	}
	return h.obj.Release()
}

func (h handle) adjust() handle {
	h.addr = h.addr.Adjust()
	return h
}

// moved returns a plain handle at a new offset: moving a handle never carries ownership or the
// non-null flag along
func (h handle) moved(delta int) handle {
	return handle{addr: h.addr.AddOffset(delta)}
}

func (h handle) resolve(env *Env) unsafe.Pointer {
	return env.ToNative(h.addr, segaddr.ContextPlainAccess, h.nonNull)
}

// member resolves the handle and leaves its address in the transient slot, keyed by the resolved
// native address, so AddrOf can recover it
func (h handle) member(env *Env) unsafe.Pointer {
	native := env.ToNative(h.addr, segaddr.ContextPlainAccess, true)
	env.transient.Store(native, h.addr)
	return native
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

var flatLayouts sync.Map

// IsFlat returns true if T can live in segmented memory: no Go pointers, strings, slices, maps,
// interfaces, channels or funcs anywhere in its layout
func IsFlat[T any]() bool {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	flat, ok := flatLayouts.Load(typ)
	if !ok {
		flat = isFlat(typ)
		flatLayouts.Store(typ, flat)
	}
	return flat.(bool)
}

func requireFlat[T any]() {
	if !IsFlat[T]() {
		panic(errors.AssertionFailedf("type %s cannot be dereferenced in segmented memory: it is not a flat layout",
			reflect.TypeOf((*T)(nil)).Elem().String()))
	}
}

func isFlat(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isFlat(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if !isFlat(typ.Field(i).Type) {
				return false
			}
		}
		return true
	}

	return false
}
