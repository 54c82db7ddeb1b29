package farptr_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/farptr"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

var currentDS uint16

type dataSegment struct{}

func (dataSegment) Segment() uint16 { return currentDS }

type stackSegment struct{}

func (stackSegment) Segment() uint16 { return 0x9000 }

func TestNearPointer(t *testing.T) {
	env, _ := newEnv(farptr.EnvOptions{})

	currentDS = 0x1000
	near := farptr.NewNear[uint16, dataSegment](0x0040)
	require.False(t, near.IsNull())
	require.True(t, farptr.NewNear[uint16, dataSegment](0).IsNull())
	require.Equal(t, segaddr.Make(0x1000, 0x0040), near.Far().Addr())

	*near.Get(env) = 0x1234
	require.Equal(t, uint16(0x1234), farptr.New[uint16](0x1000, 0x0040).Load(env))

	currentDS = 0x2000
	require.Equal(t, segaddr.Make(0x2000, 0x0040), near.Far().Addr())
	require.Equal(t, uint16(0), *near.Get(env))
}

func TestNearPointerArithmetic(t *testing.T) {
	near := farptr.NewNear[uint32, stackSegment](0x0100)

	require.Equal(t, uint16(0x0108), near.Add(2).Off())
	require.Equal(t, uint16(0x00fc), near.Sub(1).Off())
	require.Equal(t, uint16(8), near.Add(2).Diff(near))
	require.Equal(t, uint16(0xfff8), near.Diff(near.Add(2)))

	wrapped := farptr.NewNear[uint32, stackSegment](0xfffe).Add(1)
	require.Equal(t, uint16(0x0002), wrapped.Off())
	require.Equal(t, segaddr.Make(0x9000, 0x0002), wrapped.Far().Addr())
}
