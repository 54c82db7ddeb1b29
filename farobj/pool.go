package farobj

import (
	"context"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/farptr/internal/utils"
	"github.com/vkngwrapper/arsenal/farptr/registry"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

// Allocator hands out segmented memory for bound objects. realmode.Arena is one implementation.
type Allocator interface {
	// Alloc reserves at least size bytes of segmented memory
	Alloc(size int) (segaddr.Addr, error)
	// Free returns memory obtained from Alloc
	Free(addr segaddr.Addr) error
}

// PoolOptions contains optional settings when creating a Pool
type PoolOptions struct {
	// UseMutex guards the pool and its objects with mutexes so they can be shared between
	// goroutines. The Allocator and registry are responsible for their own synchronization.
	UseMutex bool
	// InitialCapacity is the number of live objects the pool has room for before it grows. The
	// default is 32.
	InitialCapacity uint32
}

// Statistics contains basic metrics for a Pool
type Statistics struct {
	LiveObjects int
	LiveBytes   int
	Binds       int
	Releases    int
	Syncs       int
}

func (s *Statistics) Clear() {
	s.LiveObjects = 0
	s.LiveBytes = 0
	s.Binds = 0
	s.Releases = 0
	s.Syncs = 0
}

// Pool binds native objects into segmented memory. Every bound object gets a copy of its bytes in
// memory obtained from the Allocator, and an entry in the persistent registry so the segmented
// address can be recovered from the native object.
type Pool struct {
	logger    *slog.Logger
	resolver  segaddr.Resolver
	allocator Allocator
	registry  *registry.Registry

	useMutex bool
	mutex    utils.OptionalRWMutex
	live     *swiss.Map[*Object, struct{}]

	binds    atomic.Int64
	releases atomic.Int64
	syncs    atomic.Int64
}

// NewPool creates a new Pool
//
// resolver - Maps the segmented memory handed out by allocator onto native memory
//
// allocator - Provides segmented memory for bound objects
//
// reg - The persistent registry shared with the farptr.Env instances that will use the objects
func NewPool(logger *slog.Logger, resolver segaddr.Resolver, allocator Allocator, reg *registry.Registry, options PoolOptions) *Pool {
	capacity := options.InitialCapacity
	if capacity == 0 {
		capacity = 32
	}

	return &Pool{
		logger:    logger,
		resolver:  resolver,
		allocator: allocator,
		registry:  reg,

		useMutex: options.UseMutex,
		mutex:    utils.OptionalRWMutex{UseMutex: options.UseMutex},
		live:     swiss.NewMap[*Object, struct{}](capacity),
	}
}

func (p *Pool) bind(native []byte, allocSize, elemSize int, isConst bool, label string) (*Object, error) {
	addr, err := p.allocator.Alloc(allocSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate %d bytes of segmented memory for %s", allocSize, label)
	}

	obj := &Object{
		pool:      p,
		addr:      addr,
		size:      len(native),
		allocSize: allocSize,
		elemSize:  elemSize,
		isConst:   isConst,
		label:     label,
		mutex:     utils.OptionalRWMutex{UseMutex: p.useMutex},
	}
	if len(native) > 0 {
		obj.native = unsafe.Pointer(&native[0])
	}
	obj.refs.Store(1)

	segmented := obj.segmented()
	copied := copy(segmented, native)
	for i := copied; i < len(segmented); i++ {
		segmented[i] = 0
	}

	if obj.native != nil {
		p.registry.Store(obj.native, addr)
	}

	p.mutex.Lock()
	p.live.Put(obj, struct{}{})
	utils.DebugValidate(poolValidator{p})
	p.mutex.Unlock()

	p.binds.Add(1)
	p.logger.Debug("Pool::bind",
		slog.String("Label", label),
		slog.String("Address", addr.String()),
		slog.Int("Size", allocSize),
		slog.Bool("Const", isConst),
	)

	return obj, nil
}

func (p *Pool) unbind(obj *Object) error {
	p.mutex.Lock()
	p.live.Delete(obj)
	utils.DebugValidate(poolValidator{p})
	p.mutex.Unlock()

	if obj.native != nil {
		p.registry.Delete(obj.native, obj.addr)
	}

	p.releases.Add(1)
	p.logger.Debug("Pool::unbind", slog.String("Label", obj.label), slog.String("Address", obj.addr.String()))

	err := p.allocator.Free(obj.addr)
	if err != nil {
		return errors.Wrapf(err, "failed to free the segmented memory of %s", obj.label)
	}
	return nil
}

func (p *Pool) liveObjects() []*Object {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	objects := make([]*Object, 0, p.live.Count())
	p.live.Iter(func(obj *Object, _ struct{}) bool {
		objects = append(objects, obj)
		return false
	})
	return objects
}

// Len returns the number of live objects
func (p *Pool) Len() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.live.Count()
}

// SyncOwned copies every live, writable object that owner has observed back into native memory.
// This is the commit point for changes made by foreign code to objects whose address was passed
// across a call boundary.
func (p *Pool) SyncOwned(owner any) error {
	var err error
	for _, obj := range p.liveObjects() {
		if obj.isConst || !obj.OwnedBy(owner) {
			continue
		}

		err = errors.CombineErrors(err, obj.Sync())
	}
	return err
}

// Validate performs internal consistency checks on the pool
func (p *Pool) Validate() error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return poolValidator{p}.Validate()
}

type poolValidator struct {
	p *Pool
}

func (v poolValidator) Validate() error {
	var err error
	v.p.live.Iter(func(obj *Object, _ struct{}) bool {
		if obj.refs.Load() <= 0 {
			err = errors.Newf("live object %s has no references", obj.label)
			return true
		}

		if obj.addr.IsNull() {
			err = errors.Newf("live object %s is bound to the null address", obj.label)
			return true
		}

		if obj.size > obj.allocSize {
			err = errors.Newf("live object %s mirrors %d bytes into only %d bytes", obj.label, obj.size, obj.allocSize)
			return true
		}

		return false
	})
	return err
}

// AddStatistics sums this pool's metrics into the provided Statistics object
func (p *Pool) AddStatistics(stats *Statistics) {
	for _, obj := range p.liveObjects() {
		stats.LiveObjects++
		stats.LiveBytes += obj.allocSize
	}

	stats.Binds += int(p.binds.Load())
	stats.Releases += int(p.releases.Load())
	stats.Syncs += int(p.syncs.Load())
}

// BuildStatsString writes a json object describing the pool and each of its live objects
func (p *Pool) BuildStatsString(writer *jwriter.Writer) {
	var stats Statistics
	p.AddStatistics(&stats)

	obj := writer.Object()
	defer obj.End()

	obj.Name("LiveObjects").Int(stats.LiveObjects)
	obj.Name("LiveBytes").Int(stats.LiveBytes)
	obj.Name("Binds").Int(stats.Binds)
	obj.Name("Releases").Int(stats.Releases)
	obj.Name("Syncs").Int(stats.Syncs)

	objects := obj.Name("Objects").Array()
	for _, live := range p.liveObjects() {
		item := objects.Object()
		item.Name("Label").String(live.label)
		item.Name("Address").String(live.addr.String())
		item.Name("Size").Int(live.allocSize)
		item.Name("References").Int(int(live.refs.Load()))
		item.Name("Const").Bool(live.isConst)
		item.Name("Owners").Int(len(live.Owners()))
		item.End()
	}
	objects.End()
}

// Destroy checks that every object bound by this pool has been released. Objects that are still
// live are logged and reported as an error; their memory is left in place.
func (p *Pool) Destroy() error {
	objects := p.liveObjects()
	if len(objects) == 0 {
		return nil
	}

	for _, obj := range objects {
		p.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED OBJECT] bound object was never released",
			slog.String("label", obj.label),
			slog.String("address", obj.addr.String()),
			slog.Int("references", int(obj.refs.Load())),
		)
	}

	return errors.Newf("%d objects were not released before the destruction of this pool", len(objects))
}
