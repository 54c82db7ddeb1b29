package registry_test

import (
	"os"
	"sync"
	"testing"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/farptr/internal/utils"
	"github.com/vkngwrapper/arsenal/farptr/registry"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

func newRegistry(useMutex bool) *registry.Registry {
	return registry.New(slog.New(slog.NewTextHandler(os.Stdout)), registry.Options{UseMutex: useMutex})
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := newRegistry(false)

	values := make([]uint32, 4)
	for i := range values {
		reg.Store(unsafe.Pointer(&values[i]), segaddr.Make(0x2000, uint16(i*4)))
	}

	require.Equal(t, 4, reg.Len())
	for i := range values {
		require.Equal(t, segaddr.Make(0x2000, uint16(i*4)), reg.Lookup(unsafe.Pointer(&values[i])))
	}
	require.NoError(t, reg.Validate())
}

func TestRegistryLookupMissPanics(t *testing.T) {
	reg := newRegistry(false)

	var stored, neverStored uint16
	reg.Store(unsafe.Pointer(&stored), segaddr.Make(0x1000, 0x10))

	require.Panics(t, func() {
		reg.Lookup(unsafe.Pointer(&neverStored))
	})

	_, ok := reg.Find(unsafe.Pointer(&neverStored))
	require.False(t, ok)
}

func TestRegistryLookupNullPanics(t *testing.T) {
	reg := newRegistry(false)

	var value uint16
	require.Panics(t, func() {
		reg.Store(unsafe.Pointer(&value), segaddr.Null)
		reg.Lookup(unsafe.Pointer(&value))
	})
}

func TestRegistryStoreReplaces(t *testing.T) {
	reg := newRegistry(false)

	var value uint16
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x1000, 0))
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x2000, 0))

	require.Equal(t, 1, reg.Len())
	require.Equal(t, segaddr.Make(0x2000, 0), reg.Lookup(unsafe.Pointer(&value)))
}

func TestRegistryDeleteRequiresMatch(t *testing.T) {
	reg := newRegistry(false)

	var value uint16
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x1000, 0))
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x2000, 0))

	require.False(t, reg.Delete(unsafe.Pointer(&value), segaddr.Make(0x1000, 0)))
	require.Equal(t, 1, reg.Len())

	require.True(t, reg.Delete(unsafe.Pointer(&value), segaddr.Make(0x2000, 0)))
	require.Equal(t, 0, reg.Len())

	require.False(t, reg.Delete(unsafe.Pointer(&value), segaddr.Make(0x2000, 0)))
}

//go:noinline
func deepenStack(depth int) byte {
	var frame [1024]byte
	frame[depth%len(frame)] = byte(depth)
	if depth == 0 {
		return frame[0]
	}
	return frame[depth%len(frame)] + deepenStack(depth-1)
}

func TestRegistryBindingSurvivesStackGrowth(t *testing.T) {
	reg := newRegistry(false)

	var value uint16
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x1000, 0x20))
	deepenStack(64)

	addr, ok := reg.Find(unsafe.Pointer(&value))
	require.True(t, ok)
	require.Equal(t, segaddr.Make(0x1000, 0x20), addr)
	require.True(t, reg.Delete(unsafe.Pointer(&value), addr))
	require.Equal(t, 0, reg.Len())
}

func TestRegistryStatistics(t *testing.T) {
	reg := newRegistry(false)

	var a, b uint16
	reg.Store(unsafe.Pointer(&a), segaddr.Make(0x1000, 0))
	reg.Store(unsafe.Pointer(&b), segaddr.Make(0x1001, 0))
	reg.Lookup(unsafe.Pointer(&a))
	reg.Find(unsafe.Pointer(&a))
	reg.Delete(unsafe.Pointer(&b), segaddr.Make(0x1001, 0))
	reg.Find(unsafe.Pointer(&b))

	var stats registry.Statistics
	reg.AddStatistics(&stats)
	require.Equal(t, registry.Statistics{
		Entries:   1,
		Stores:    2,
		Evictions: 1,
		Lookups:   3,
		Misses:    1,
	}, stats)

	stats.Clear()
	require.Equal(t, registry.Statistics{}, stats)
}

func TestRegistryVisitAll(t *testing.T) {
	reg := newRegistry(false)

	values := make([]byte, 3)
	for i := range values {
		reg.Store(unsafe.Pointer(&values[i]), segaddr.Make(0x3000, uint16(i)))
	}

	seen := map[unsafe.Pointer]segaddr.Addr{}
	err := reg.VisitAll(func(entry registry.Entry) error {
		seen[entry.Native] = entry.Addr
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 3)
	require.Equal(t, segaddr.Make(0x3000, 2), seen[unsafe.Pointer(&values[2])])
}

func TestRegistryValidateNullBinding(t *testing.T) {
	if utils.DebugEnabled {
		t.Skip("debug_farptr validates on every store")
	}

	reg := newRegistry(false)

	var value uint16
	reg.Store(unsafe.Pointer(&value), segaddr.Null)
	require.Error(t, reg.Validate())
}

func TestRegistryStatsString(t *testing.T) {
	reg := newRegistry(false)

	var value uint16
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x1234, 0x0010))

	writer := jwriter.NewWriter()
	reg.BuildStatsString(&writer)
	require.NoError(t, writer.Error())
	require.Contains(t, string(writer.Bytes()), `"Address":"1234:0010"`)
	require.Contains(t, string(writer.Bytes()), `"Entries":1`)
}

func TestRegistryConcurrentDistinctObjects(t *testing.T) {
	reg := newRegistry(true)

	values := make([]uint64, 64)
	var wg sync.WaitGroup
	for i := range values {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			native := unsafe.Pointer(&values[index])
			addr := segaddr.Make(0x4000, uint16(index*8))
			reg.Store(native, addr)
			if reg.Lookup(native) != addr {
				panic("lookup returned another goroutine's binding")
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, len(values), reg.Len())
	require.NoError(t, reg.Validate())
}

func BenchmarkRegistryLookup(b *testing.B) {
	reg := registry.New(slog.New(slog.NewTextHandler(os.Stdout)), registry.Options{})

	var value uint32
	reg.Store(unsafe.Pointer(&value), segaddr.Make(0x1000, 0x20))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Lookup(unsafe.Pointer(&value))
	}
}
