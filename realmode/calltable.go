package realmode

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/farptr/internal/utils"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

type callEntry struct {
	noReturn func()
	call     func() segaddr.Addr
}

// CallTable stands in for foreign code: each entry point is a Go function registered under a
// segmented address. It can be used as the Caller of a farptr.Env.
type CallTable struct {
	logger  *slog.Logger
	mutex   utils.OptionalRWMutex
	entries *swiss.Map[segaddr.Addr, callEntry]
	calls   map[segaddr.Addr]int
}

// NewCallTable creates an empty CallTable. The table is guarded by a mutex, since entries are
// usually registered up front and called from anywhere.
func NewCallTable(logger *slog.Logger) *CallTable {
	return &CallTable{
		logger:  logger,
		mutex:   utils.OptionalRWMutex{UseMutex: true},
		entries: swiss.NewMap[segaddr.Addr, callEntry](8),
		calls:   make(map[segaddr.Addr]int),
	}
}

// Register installs fn as the entry point at target, replacing whatever was there
func (t *CallTable) Register(target segaddr.Addr, fn func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.entries.Put(target, callEntry{noReturn: fn})
}

// RegisterCall installs fn as an entry point at target that returns a far address
func (t *CallTable) RegisterCall(target segaddr.Addr, fn func() segaddr.Addr) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.entries.Put(target, callEntry{call: fn})
}

func (t *CallTable) entry(target segaddr.Addr) callEntry {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	entry, ok := t.entries.Get(target)
	if !ok {
		panic(errors.AssertionFailedf("no entry point is registered at %s", target.String()))
	}
	t.calls[target]++

	return entry
}

// CallNoReturn runs the entry point at target. Entry points registered with RegisterCall may be
// called this way as well, their result is discarded.
func (t *CallTable) CallNoReturn(target segaddr.Addr) {
	t.logger.Debug("CallTable::CallNoReturn", slog.String("Target", target.String()))

	entry := t.entry(target)
	if entry.call != nil {
		entry.call()
		return
	}
	entry.noReturn()
}

// Call runs the entry point at target and returns the far address it produced. Entry points
// registered with Register return the null address.
func (t *CallTable) Call(target segaddr.Addr) segaddr.Addr {
	t.logger.Debug("CallTable::Call", slog.String("Target", target.String()))

	entry := t.entry(target)
	if entry.call == nil {
		entry.noReturn()
		return segaddr.Null
	}
	return entry.call()
}

// Calls returns the number of times the entry point at target has been called
func (t *CallTable) Calls(target segaddr.Addr) int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.calls[target]
}
