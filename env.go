package farptr

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr/registry"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

// EnvOptions contains optional settings when creating an Env
type EnvOptions struct {
	// Caller transfers control to foreign code. It may be left nil if no Thunk will ever be
	// invoked through the Env.
	Caller Caller
	// Registry is the persistent reverse-lookup registry shared by every Env that needs to
	// recover the segmented address of bound native objects. When it is nil, NewEnv creates
	// one from RegistryOptions.
	Registry *registry.Registry
	// RegistryOptions are used to create the persistent registry when Registry is nil
	RegistryOptions registry.Options
}

// Env ties handles to the services that give them meaning: the resolver that maps segmented
// addresses to native memory, the caller that runs foreign code, the shared persistent registry,
// and a transient registry slot.
//
// The transient slot makes an Env unsafe for concurrent use. A goroutine that needs to use handles
// alongside another one should call Fork to get its own Env.
type Env struct {
	logger    *slog.Logger
	resolver  segaddr.Resolver
	caller    Caller
	registry  *registry.Registry
	transient registry.Slot
}

// NewEnv creates a new Env
//
// resolver - The resolver that maps segmented addresses onto native memory
//
// options - Optional parameters: it is valid to leave all the fields blank
func NewEnv(logger *slog.Logger, resolver segaddr.Resolver, options EnvOptions) *Env {
	reg := options.Registry
	if reg == nil {
		reg = registry.New(logger, options.RegistryOptions)
	}

	return &Env{
		logger:   logger,
		resolver: resolver,
		caller:   options.Caller,
		registry: reg,
	}
}

// Fork creates a new Env sharing this Env's resolver, caller and persistent registry, but with
// a transient slot of its own
func (e *Env) Fork() *Env {
	e.logger.Debug("Env::Fork")

	return &Env{
		logger:   e.logger,
		resolver: e.resolver,
		caller:   e.caller,
		registry: e.registry,
	}
}

// Logger returns the logger the Env was created with
func (e *Env) Logger() *slog.Logger { return e.logger }

// Resolver returns the resolver the Env was created with
func (e *Env) Resolver() segaddr.Resolver { return e.resolver }

// Registry returns the persistent reverse-lookup registry
func (e *Env) Registry() *registry.Registry { return e.registry }

// Transient returns this Env's transient reverse-lookup slot
func (e *Env) Transient() *registry.Slot { return &e.transient }

// ToNative translates addr into a native address. See segaddr.ToNative.
func (e *Env) ToNative(addr segaddr.Addr, ctx segaddr.Context, nonNull bool) unsafe.Pointer {
	return segaddr.ToNative(e.resolver, addr, ctx, nonNull)
}

func (e *Env) callerOrPanic() Caller {
	if e.caller == nil {
		panic(errors.AssertionFailedf("attempted to call foreign code through an Env that has no Caller"))
	}
	return e.caller
}
