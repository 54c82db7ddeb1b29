package segaddr_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	mock_segaddr "github.com/vkngwrapper/arsenal/farptr/segaddr/mocks"
	"go.uber.org/mock/gomock"
)

func linearResolver(memory []byte) segaddr.ResolverFuncs {
	return segaddr.ResolverFuncs{
		Plain: func(seg, off uint16) unsafe.Pointer {
			return unsafe.Pointer(&memory[segaddr.Make(seg, off).Linear()])
		},
	}
}

func TestAdjust(t *testing.T) {
	addrs := []segaddr.Addr{
		segaddr.Make(0x1234, 0x0000),
		segaddr.Make(0x1234, 0x000f),
		segaddr.Make(0x1234, 0x0010),
		segaddr.Make(0x1000, 0xfffe),
		segaddr.Make(0x0000, 0x8421),
		segaddr.Make(0xeffe, 0x1234),
	}

	memory := make([]byte, 0x110000)
	resolver := linearResolver(memory)

	for _, addr := range addrs {
		adjusted := addr.Adjust()
		require.Equal(t, addr.Off&0xf, adjusted.Off, addr.String())
		require.Equal(t, addr.Seg+(addr.Off>>4), adjusted.Seg, addr.String())
		require.Less(t, adjusted.Off, uint16(segaddr.ParagraphSize))
		require.Equal(t, adjusted, adjusted.Adjust(), addr.String())
		require.Equal(t, addr.Linear(), adjusted.Linear())

		require.Equal(t,
			segaddr.ToNative(resolver, addr, segaddr.ContextPlainAccess, true),
			segaddr.ToNative(resolver, adjusted, segaddr.ContextPlainAccess, true),
		)
	}
}

func TestAdjustFlatSegment(t *testing.T) {
	addr := segaddr.Make(segaddr.FlatSegment, 0x1234)
	require.Equal(t, addr, addr.Adjust())
}

func TestFP32(t *testing.T) {
	addr := segaddr.FromFP32(0x12345678)
	require.Equal(t, uint16(0x1234), addr.Seg)
	require.Equal(t, uint16(0x5678), addr.Off)
	require.Equal(t, uint32(0x12345678), addr.FP32())
	require.Equal(t, "1234:5678", addr.String())
}

func TestBinaryLayout(t *testing.T) {
	require.Equal(t, uintptr(4), unsafe.Sizeof(segaddr.Addr{}))

	// offset first, then segment, so the little-endian dword equals FP32
	addr := segaddr.Make(0xb800, 0x00a0)
	raw := *(*[4]byte)(unsafe.Pointer(&addr))
	require.Equal(t, [4]byte{0xa0, 0x00, 0x00, 0xb8}, raw)
}

func TestAddOffsetWraps(t *testing.T) {
	addr := segaddr.Make(0x2000, 0xfffe)
	require.Equal(t, segaddr.Make(0x2000, 0x0002), addr.AddOffset(4))
	require.Equal(t, segaddr.Make(0x2000, 0xfffa), addr.AddOffset(-4))
	require.Equal(t, segaddr.Make(0x2000, 0xfffe), segaddr.Make(0x2000, 0x0002).AddOffset(-4))
}

func TestToNativeNull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mock_segaddr.NewMockResolver(ctrl)

	require.Nil(t, segaddr.ToNative(resolver, segaddr.Null, segaddr.ContextPlainAccess, false))
	require.Nil(t, segaddr.ToNative(resolver, segaddr.Null, segaddr.ContextCallTarget, false))

	var target byte
	resolver.EXPECT().Resolve(segaddr.Null).Return(unsafe.Pointer(&target))
	require.Equal(t, unsafe.Pointer(&target), segaddr.ToNative(resolver, segaddr.Null, segaddr.ContextPlainAccess, true))
}

func TestToNativeContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mock_segaddr.NewMockResolver(ctrl)

	var data, code byte
	addr := segaddr.Make(0x0070, 0x0010)
	resolver.EXPECT().Resolve(addr).Return(unsafe.Pointer(&data))
	resolver.EXPECT().ResolveCallTarget(addr).Return(unsafe.Pointer(&code))

	require.Equal(t, unsafe.Pointer(&data), segaddr.ToNative(resolver, addr, segaddr.ContextPlainAccess, false))
	require.Equal(t, unsafe.Pointer(&code), segaddr.ToNative(resolver, addr, segaddr.ContextCallTarget, false))
}

func TestResolverFuncsFallback(t *testing.T) {
	memory := make([]byte, 0x110000)
	resolver := linearResolver(memory)

	addr := segaddr.Make(0x0100, 0x0020)
	require.Equal(t, resolver.Resolve(addr), resolver.ResolveCallTarget(addr))
	require.Equal(t, "ContextCallTarget", segaddr.ContextCallTarget.String())
}
