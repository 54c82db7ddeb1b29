package farobj

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr"
	"github.com/vkngwrapper/arsenal/farptr/internal/utils"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

// Object is a native object bound into segmented memory by a Pool. Its bytes are copied forward
// when it is bound and copied back only when Sync is called.
type Object struct {
	pool      *Pool
	addr      segaddr.Addr
	native    unsafe.Pointer
	size      int
	allocSize int
	elemSize  int
	isConst   bool
	label     string

	refs   atomic.Int32
	mutex  utils.OptionalRWMutex
	owners []any
}

var _ farptr.Object = &Object{}

// Addr returns the segmented address the object is bound to
func (o *Object) Addr() segaddr.Addr { return o.addr }

// Size returns the number of bytes of segmented memory reserved for the object
func (o *Object) Size() int { return o.allocSize }

// Len returns the number of elements in the object: 1 for a scalar, the array length for an array
func (o *Object) Len() int {
	if o.elemSize == 0 {
		return 0
	}
	return o.size / o.elemSize
}

// Label returns a description of where the object was bound, for diagnostics
func (o *Object) Label() string { return o.label }

// IsConst returns true if the object is never written back to native memory
func (o *Object) IsConst() bool { return o.isConst }

// Ref records that owner has observed the object's segmented address. Owners are compared with ==,
// so owner must be of a comparable type.
func (o *Object) Ref(owner any) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	for _, existing := range o.owners {
		if existing == owner {
			return
		}
	}
	o.owners = append(o.owners, owner)
}

// Owners returns every owner recorded through Ref
func (o *Object) Owners() []any {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	owners := make([]any, len(o.owners))
	copy(owners, o.owners)
	return owners
}

// OwnedBy returns true if owner has observed the object's segmented address
func (o *Object) OwnedBy(owner any) bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	for _, existing := range o.owners {
		if existing == owner {
			return true
		}
	}
	return false
}

// References returns the number of outstanding references
func (o *Object) References() int {
	return int(o.refs.Load())
}

// Retain adds a reference to the object. It panics if the object has already been released.
func (o *Object) Retain() {
	if o.refs.Add(1) <= 1 {
		panic(errors.AssertionFailedf("attempted to retain %s after it was released", o.label))
	}
}

// Release drops a reference to the object. When the last reference is dropped, the object's
// registry entry is removed and its segmented memory is freed. Nothing is written back.
func (o *Object) Release() error {
	refs := o.refs.Add(-1)
	if refs < 0 {
		panic(errors.AssertionFailedf("attempted to release %s more times than it was referenced", o.label))
	}

	if refs > 0 {
		return nil
	}

	return o.pool.unbind(o)
}

func (o *Object) segmented() []byte {
	native := segaddr.ToNative(o.pool.resolver, o.addr, segaddr.ContextPlainAccess, true)
	return unsafe.Slice((*byte)(native), o.allocSize)
}

// Bytes returns a native view of the object's segmented copy
func (o *Object) Bytes() []byte {
	if o.refs.Load() <= 0 {
		panic(errors.AssertionFailedf("attempted to view %s after it was released", o.label))
	}
	return o.segmented()
}

// Sync copies the segmented copy of the object back into native memory. Const objects are left
// untouched.
func (o *Object) Sync() error {
	if o.isConst {
		return nil
	}

	if o.refs.Load() <= 0 {
		return errors.Newf("attempted to sync %s after it was released", o.label)
	}

	if o.native != nil {
		copy(unsafe.Slice((*byte)(o.native), o.size), o.segmented())
	}

	o.pool.syncs.Add(1)
	o.pool.logger.Debug("Object::Sync", slog.String("Label", o.label), slog.String("Address", o.addr.String()))
	return nil
}
