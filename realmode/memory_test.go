package realmode_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/farptr/realmode"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout))
}

func TestMemoryAliasing(t *testing.T) {
	mem := realmode.NewMemory(testLogger(), realmode.MemoryOptions{})

	realmode.Poke[uint16](mem, segaddr.Make(0x1234, 0x0005), 0xbeef)

	require.Equal(t, uint16(0xbeef), realmode.Peek[uint16](mem, segaddr.Make(0x1000, 0x2345)))
	require.Equal(t, uint16(0xbeef), realmode.Peek[uint16](mem, segaddr.Make(0x1234, 0x0005).Adjust()))
	require.Equal(t, mem.Resolve(segaddr.Make(0x1234, 0x0005)), mem.Resolve(segaddr.Make(0x1000, 0x2345)))
}

func TestMemoryLittleEndian(t *testing.T) {
	mem := realmode.NewMemory(testLogger(), realmode.MemoryOptions{})

	realmode.Poke[uint32](mem, segaddr.Make(0x2000, 0), 0x11223344)
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, mem.Bytes(segaddr.Make(0x2000, 0), 4))

	realmode.Poke[int16](mem, segaddr.Make(0x3000, 0), -2)
	require.Equal(t, []byte{0xfe, 0xff}, mem.Bytes(segaddr.Make(0x3000, 0), 2))
	require.Equal(t, int16(-2), realmode.Peek[int16](mem, segaddr.Make(0x3000, 0)))
}

func TestMemoryA20Wrap(t *testing.T) {
	mem := realmode.NewMemory(testLogger(), realmode.MemoryOptions{})

	high := segaddr.Make(0xffff, 0x0010)
	require.Equal(t, uint32(0), mem.Linear(high))
	require.Equal(t, mem.Resolve(segaddr.Make(0, 0)), mem.Resolve(high))

	mem.SetA20(true)
	require.True(t, mem.A20())
	require.Equal(t, uint32(realmode.ConventionalTop), mem.Linear(high))
	require.NotEqual(t, mem.Resolve(segaddr.Make(0, 0)), mem.Resolve(high))

	last := segaddr.Make(0xffff, 0xffff)
	require.Equal(t, uint32(realmode.MemorySize-1), mem.Linear(last))
	require.NotPanics(t, func() {
		mem.Bytes(last, 1)
	})
	require.Panics(t, func() {
		mem.Bytes(last, 2)
	})
}

func TestMemoryCallTargets(t *testing.T) {
	mem := realmode.NewMemory(testLogger(), realmode.MemoryOptions{})

	target := segaddr.Make(0x0800, 0x0100)
	require.Equal(t, mem.Resolve(target), mem.ResolveCallTarget(target))

	mem.MarkExecutable(segaddr.Make(0x0800, 0), 0x200)
	require.Equal(t, mem.Resolve(target), mem.ResolveCallTarget(target))
	require.Equal(t, mem.Resolve(segaddr.Make(0x0810, 0)), mem.ResolveCallTarget(segaddr.Make(0x0810, 0)))

	require.Panics(t, func() {
		mem.ResolveCallTarget(segaddr.Make(0x0820, 0))
	})
}

func TestMemoryAsResolver(t *testing.T) {
	mem := realmode.NewMemory(testLogger(), realmode.MemoryOptions{})

	require.Nil(t, segaddr.ToNative(mem, segaddr.Null, segaddr.ContextPlainAccess, false))
	require.Equal(t, mem.Resolve(segaddr.Null), segaddr.ToNative(mem, segaddr.Null, segaddr.ContextPlainAccess, true))

	native := segaddr.ToNative(mem, segaddr.Make(0x40, 0x17), segaddr.ContextPlainAccess, false)
	*(*byte)(native) = 0x20
	require.Equal(t, []byte{0x20}, mem.Bytes(segaddr.Make(0, 0x417), 1))
	require.Equal(t, uintptr(1), uintptr(mem.Resolve(segaddr.Make(0, 0x418)))-uintptr(native))
}
