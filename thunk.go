package farptr

import (
	"unsafe"

	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

//go:generate mockgen -source thunk.go -destination ./mocks/caller.go

// Caller transfers control to foreign code at a segmented entry point
type Caller interface {
	// CallNoReturn calls the code at target and expects no value back
	CallNoReturn(target segaddr.Addr)
	// Call calls the code at target and returns the segmented address it produced, which is
	// itself a callable entry point
	Call(target segaddr.Addr) segaddr.Addr
}

// NoReturnThunk is a callable foreign entry point that returns nothing
type NoReturnThunk struct {
	target VoidPointer
}

// NewNoReturnThunk wraps target as a NoReturnThunk
func NewNoReturnThunk(target VoidPointer) NoReturnThunk {
	return NoReturnThunk{target: target}
}

// Target returns the entry point
func (t NoReturnThunk) Target() VoidPointer { return t.target }

// Invoke calls the entry point through env's Caller
func (t NoReturnThunk) Invoke(env *Env) {
	env.logger.Debug("NoReturnThunk::Invoke", slog.String("Target", t.target.Addr().String()))
	env.callerOrPanic().CallNoReturn(t.target.Addr())
}

// Thunk is a callable foreign entry point whose result is another entry point
type Thunk struct {
	target VoidPointer
}

// NewThunk wraps target as a Thunk
func NewThunk(target VoidPointer) Thunk {
	return Thunk{target: target}
}

// Target returns the entry point
func (t Thunk) Target() VoidPointer { return t.target }

// Invoke calls the entry point through env's Caller and wraps the entry point it returns
func (t Thunk) Invoke(env *Env) Thunk {
	env.logger.Debug("Thunk::Invoke", slog.String("Target", t.target.Addr().String()))
	next := env.callerOrPanic().Call(t.target.Addr())
	return Thunk{target: VoidFromAddr(next)}
}

// Deref returns the same entry point as a NoReturnThunk
func (t Thunk) Deref() NoReturnThunk {
	return NoReturnThunk{target: t.target}
}

// Entry resolves the entry point to native memory using the call target policy
func (t Thunk) Entry(env *Env) unsafe.Pointer {
	return env.ToNative(t.target.Addr(), segaddr.ContextCallTarget, t.target.nonNull)
}
