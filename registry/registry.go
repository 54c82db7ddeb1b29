package registry

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/farptr/internal/utils"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

const defaultCapacity uint32 = 64

// Options contains optional settings when creating a Registry
type Options struct {
	// UseMutex guards every operation with a read/write mutex so the Registry can be shared between
	// goroutines. When it is false, the consumer must guarantee that the Registry is used from one
	// goroutine at a time.
	UseMutex bool
	// InitialCapacity is the number of bindings the Registry is sized for up front. The zero value
	// selects a small default.
	InitialCapacity uint32
}

// Entry is a single binding from a native address to the segmented address that was stored for it
type Entry struct {
	Native unsafe.Pointer
	Addr   segaddr.Addr
}

// Registry is the persistent reverse-lookup registry. It holds any number of bindings keyed by
// native address, each of which lives until it is explicitly deleted. Keys are held as real pointers,
// so a bound native object stays reachable and is never moved while its binding exists.
type Registry struct {
	logger  *slog.Logger
	mutex   utils.OptionalRWMutex
	entries *swiss.Map[unsafe.Pointer, segaddr.Addr]

	stores    atomic.Int64
	evictions atomic.Int64
	lookups   atomic.Int64
	misses    atomic.Int64
}

// New creates an empty Registry
func New(logger *slog.Logger, options Options) *Registry {
	capacity := options.InitialCapacity
	if capacity == 0 {
		capacity = defaultCapacity
	}

	return &Registry{
		logger:  logger,
		mutex:   utils.OptionalRWMutex{UseMutex: options.UseMutex},
		entries: swiss.NewMap[unsafe.Pointer, segaddr.Addr](capacity),
	}
}

// Store binds native to addr. A binding that already exists for native is replaced.
func (r *Registry) Store(native unsafe.Pointer, addr segaddr.Addr) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if previous, ok := r.entries.Get(native); ok && previous != addr {
		r.logger.Debug("Registry::Store replacing binding",
			slog.String("Native", fmt.Sprintf("%p", native)),
			slog.String("Previous", previous.String()),
			slog.String("Address", addr.String()))
	}

	r.entries.Put(native, addr)
	r.stores.Add(1)

	utils.DebugValidate(registryValidator{r})
}

// Find returns the segmented address bound to native, if there is a binding and it is not null
func (r *Registry) Find(native unsafe.Pointer) (segaddr.Addr, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	r.lookups.Add(1)
	addr, ok := r.entries.Get(native)
	if !ok || addr.IsNull() {
		r.misses.Add(1)
		return segaddr.Null, false
	}

	return addr, true
}

// Lookup returns the segmented address bound to native. It panics if there is no binding or the
// binding holds the null address.
func (r *Registry) Lookup(native unsafe.Pointer) segaddr.Addr {
	addr, ok := r.Find(native)
	if !ok {
		panic(errors.AssertionFailedf("no segmented address is registered for native address %p", native))
	}

	return addr
}

// Delete removes the binding for native, but only if it is still bound to addr. A native address
// that was rebound by a newer Store keeps its newer binding. Delete returns true if a binding was
// removed.
func (r *Registry) Delete(native unsafe.Pointer, addr segaddr.Addr) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, ok := r.entries.Get(native)
	if !ok || current != addr {
		return false
	}

	r.entries.Delete(native)
	r.evictions.Add(1)
	return true
}

// Len returns the number of live bindings
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.entries.Count()
}

// VisitAll calls the provided callback once for each live binding, in no particular order. The
// first error returned by the callback stops the iteration and is returned.
func (r *Registry) VisitAll(visit func(entry Entry) error) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var err error
	r.entries.Iter(func(native unsafe.Pointer, addr segaddr.Addr) bool {
		err = visit(Entry{Native: native, Addr: addr})
		return err != nil
	})
	return err
}

// Validate performs internal consistency checks on the registry
func (r *Registry) Validate() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return registryValidator{r}.Validate()
}

// registryValidator validates without taking the mutex, for use while it is already held
type registryValidator struct {
	r *Registry
}

func (v registryValidator) Validate() error {
	var err error
	v.r.entries.Iter(func(native unsafe.Pointer, addr segaddr.Addr) bool {
		if native == nil {
			err = errors.Newf("the nil native address is bound to %s", addr.String())
			return true
		}

		if addr.IsNull() {
			err = errors.Newf("native address %p is bound to the null address", native)
			return true
		}

		return false
	})
	if err != nil {
		return err
	}

	if int64(v.r.entries.Count()) > v.r.stores.Load()-v.r.evictions.Load() {
		return errors.Newf("the registry holds %d bindings, but only %d stores and %d evictions were made",
			v.r.entries.Count(), v.r.stores.Load(), v.r.evictions.Load())
	}

	return nil
}

// AddStatistics sums this registry's metrics into the provided Statistics object
func (r *Registry) AddStatistics(stats *Statistics) {
	stats.Entries += r.Len()
	stats.Stores += int(r.stores.Load())
	stats.Evictions += int(r.evictions.Load())
	stats.Lookups += int(r.lookups.Load())
	stats.Misses += int(r.misses.Load())
}

// BuildStatsString writes a json object describing the registry and every live binding
func (r *Registry) BuildStatsString(writer *jwriter.Writer) {
	var stats Statistics
	r.AddStatistics(&stats)

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	obj := writer.Object()
	defer obj.End()

	obj.Name("Entries").Int(stats.Entries)
	obj.Name("Stores").Int(stats.Stores)
	obj.Name("Evictions").Int(stats.Evictions)
	obj.Name("Lookups").Int(stats.Lookups)
	obj.Name("Misses").Int(stats.Misses)

	bindings := obj.Name("Bindings").Array()
	r.entries.Iter(func(native unsafe.Pointer, addr segaddr.Addr) bool {
		binding := bindings.Object()
		binding.Name("Native").String(fmt.Sprintf("%p", native))
		binding.Name("Address").String(addr.String())
		binding.End()
		return false
	})
	bindings.End()
}
