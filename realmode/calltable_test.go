package realmode_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/farptr/realmode"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
)

func TestCallTableDispatch(t *testing.T) {
	table := realmode.NewCallTable(testLogger())

	exit := segaddr.Make(0x0070, 0x0010)
	alloc := segaddr.Make(0x0070, 0x0020)

	exited := 0
	table.Register(exit, func() { exited++ })
	table.RegisterCall(alloc, func() segaddr.Addr { return segaddr.Make(0x3000, 0) })

	table.CallNoReturn(exit)
	require.Equal(t, 1, exited)
	require.Equal(t, segaddr.Null, table.Call(exit))
	require.Equal(t, 2, exited)

	require.Equal(t, segaddr.Make(0x3000, 0), table.Call(alloc))
	table.CallNoReturn(alloc)

	require.Equal(t, 2, table.Calls(exit))
	require.Equal(t, 2, table.Calls(alloc))
}

func TestCallTableUnknownTarget(t *testing.T) {
	table := realmode.NewCallTable(testLogger())

	require.Panics(t, func() {
		table.CallNoReturn(segaddr.Make(0x0070, 0x0030))
	})
	require.Panics(t, func() {
		table.Call(segaddr.Make(0x0070, 0x0030))
	})
	require.Equal(t, 0, table.Calls(segaddr.Make(0x0070, 0x0030)))
}

func TestCallTableReplace(t *testing.T) {
	table := realmode.NewCallTable(testLogger())

	target := segaddr.Make(0x0070, 0x0010)
	table.RegisterCall(target, func() segaddr.Addr { return segaddr.Make(1, 1) })
	table.RegisterCall(target, func() segaddr.Addr { return segaddr.Make(2, 2) })

	require.Equal(t, segaddr.Make(2, 2), table.Call(target))
}
