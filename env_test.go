package farptr_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/farptr"
	"github.com/vkngwrapper/arsenal/farptr/realmode"
	"github.com/vkngwrapper/arsenal/farptr/registry"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

func TestEnvCreatesRegistry(t *testing.T) {
	env, mem := newEnv(farptr.EnvOptions{RegistryOptions: registry.Options{UseMutex: true}})
	require.NotNil(t, env.Registry())
	require.Equal(t, 0, env.Registry().Len())
	require.Same(t, mem, env.Resolver())
	require.NotNil(t, env.Logger())
}

func TestEnvForkSharesRegistry(t *testing.T) {
	logger := testLogger()
	reg := registry.New(logger, registry.Options{UseMutex: true})
	mem := realmode.NewMemory(logger, realmode.MemoryOptions{})
	env := farptr.NewEnv(logger, mem, farptr.EnvOptions{Registry: reg})

	forked := env.Fork()
	require.Same(t, reg, env.Registry())
	require.Same(t, reg, forked.Registry())
	require.NotSame(t, env.Transient(), forked.Transient())

	first := farptr.New[uint16](0x1000, 0).Member(env)
	second := farptr.New[uint16](0x2000, 0).Member(forked)

	require.Equal(t, segaddr.Make(0x1000, 0), farptr.AddrOf(env, first).Addr())
	require.Equal(t, segaddr.Make(0x2000, 0), farptr.AddrOf(forked, second).Addr())
}

func TestEnvForkPerGoroutine(t *testing.T) {
	env, _ := newEnv(farptr.EnvOptions{})

	var wg sync.WaitGroup
	failures := make(chan segaddr.Addr, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seg uint16) {
			defer wg.Done()

			own := env.Fork()
			for j := 0; j < 100; j++ {
				p := farptr.New[uint32](seg, uint16(j*4))
				if got := farptr.AddrOf(own, p.Member(own)).Addr(); got != p.Addr() {
					failures <- got
					return
				}
			}
		}(uint16(0x1000 * (i + 1)))
	}

	wg.Wait()
	close(failures)
	for addr := range failures {
		require.Fail(t, "transient round trip returned the wrong address", addr.String())
	}
}

func TestEnvToNative(t *testing.T) {
	env, mem := newEnv(farptr.EnvOptions{})

	require.Nil(t, env.ToNative(segaddr.Null, segaddr.ContextPlainAccess, false))
	require.Equal(t, mem.Resolve(segaddr.Null), env.ToNative(segaddr.Null, segaddr.ContextPlainAccess, true))
	require.Equal(t, mem.Resolve(segaddr.Make(0xb800, 0)), env.ToNative(segaddr.Make(0xb800, 0), segaddr.ContextCallTarget, false))
}
