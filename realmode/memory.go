package realmode

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slog"
)

const (
	// ConventionalTop is the first linear address past the 1MiB real-mode address space
	ConventionalTop = 1 << 20
	// HMASize is the number of bytes above 1MiB reachable from segment 0xffff with A20 enabled
	HMASize = 0x10000 - segaddr.ParagraphSize
	// MemorySize is the total number of bytes backing a Memory
	MemorySize = ConventionalTop + HMASize

	wrapMask = ConventionalTop - 1
)

// MemoryOptions contains optional settings when creating a Memory
type MemoryOptions struct {
	// A20Enabled makes the high memory area above 1MiB reachable. When it is false, linear addresses
	// wrap around at 1MiB the way they do on an 8086.
	A20Enabled bool
}

// Region is a range of linear addresses
type Region struct {
	Start uint32
	Size  uint32
}

func (r Region) contains(linear uint32) bool {
	return linear >= r.Start && linear-r.Start < r.Size
}

// Memory is a real-mode address space backed by native memory. It resolves segmented addresses by
// computing seg*16+off and is usable as a segaddr.Resolver.
type Memory struct {
	logger     *slog.Logger
	data       []byte
	a20        bool
	executable []Region
}

var _ segaddr.Resolver = &Memory{}

// NewMemory creates a zero-filled Memory
func NewMemory(logger *slog.Logger, options MemoryOptions) *Memory {
	return &Memory{
		logger: logger,
		data:   make([]byte, MemorySize),
		a20:    options.A20Enabled,
	}
}

// SetA20 opens or closes the A20 gate
func (m *Memory) SetA20(enabled bool) {
	m.logger.Debug("Memory::SetA20", slog.Bool("Enabled", enabled))
	m.a20 = enabled
}

// A20 returns true if the A20 gate is open
func (m *Memory) A20() bool { return m.a20 }

// MarkExecutable declares a range of memory as code. Once any range has been declared, only
// addresses inside a declared range resolve as call targets.
func (m *Memory) MarkExecutable(start segaddr.Addr, size int) {
	m.logger.Debug("Memory::MarkExecutable", slog.String("Start", start.String()), slog.Int("Size", size))
	m.executable = append(m.executable, Region{Start: m.linear(start), Size: uint32(size)})
}

// Linear returns the linear address addr resolves to, taking the A20 gate into account
func (m *Memory) Linear(addr segaddr.Addr) uint32 {
	return m.linear(addr)
}

func (m *Memory) linear(addr segaddr.Addr) uint32 {
	linear := addr.Linear()
	if !m.a20 {
		linear &= wrapMask
	}
	return linear
}

// Resolve returns the native address of the byte named by addr
func (m *Memory) Resolve(addr segaddr.Addr) unsafe.Pointer {
	return unsafe.Pointer(&m.data[m.linear(addr)])
}

// ResolveCallTarget returns the native address of the entry point named by addr. It panics if
// executable regions have been declared and addr is outside all of them.
func (m *Memory) ResolveCallTarget(addr segaddr.Addr) unsafe.Pointer {
	if len(m.executable) > 0 {
		linear := m.linear(addr)
		found := false
		for _, region := range m.executable {
			if region.contains(linear) {
				found = true
				break
			}
		}

		if !found {
			panic(errors.AssertionFailedf("call target %s is outside every executable region", addr.String()))
		}
	}

	return m.Resolve(addr)
}

// Bytes returns a native view of size bytes starting at addr. The view does not wrap around the
// end of the address space.
func (m *Memory) Bytes(addr segaddr.Addr, size int) []byte {
	linear := int(m.linear(addr))
	if linear+size > len(m.data) {
		panic(errors.AssertionFailedf("%d bytes at %s run past the end of memory", size, addr.String()))
	}

	return m.data[linear : linear+size]
}

// Peek reads a little-endian integer at addr
func Peek[T constraints.Integer](m *Memory, addr segaddr.Addr) T {
	var zero T
	raw := m.Bytes(addr, int(unsafe.Sizeof(zero)))

	var value uint64
	for i := len(raw) - 1; i >= 0; i-- {
		value = value<<8 | uint64(raw[i])
	}
	return T(value)
}

// Poke writes a little-endian integer at addr
func Poke[T constraints.Integer](m *Memory, addr segaddr.Addr, value T) {
	raw := m.Bytes(addr, int(unsafe.Sizeof(value)))

	bits := uint64(value)
	for i := range raw {
		raw[i] = byte(bits)
		bits >>= 8
	}
}
