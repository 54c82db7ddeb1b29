package realmode

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/farptr/internal/utils"
	"github.com/vkngwrapper/arsenal/farptr/segaddr"
	"golang.org/x/exp/slog"
)

// ArenaOptions contains optional settings when creating an Arena
type ArenaOptions struct {
	// UseMutex guards the arena with a mutex so it can be shared between goroutines
	UseMutex bool
}

// Statistics contains basic metrics for an Arena, in bytes
type Statistics struct {
	BlockBytes         int
	AllocationCount    int
	AllocationBytes    int
	UnusedRangeCount   int
	UnusedRangeSizeMax int
}

func (s *Statistics) Clear() {
	s.BlockBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
	s.UnusedRangeCount = 0
	s.UnusedRangeSizeMax = 0
}

// arenaRange is a run of paragraphs, counted from the arena's first segment
type arenaRange struct {
	start int
	size  int
	free  bool
}

// Arena hands out paragraph-aligned ranges of segmented memory. Every allocation starts at offset
// 0 of its own segment, so an allocation of up to 64k is addressable without touching the segment.
type Arena struct {
	logger *slog.Logger
	mutex  utils.OptionalRWMutex

	firstSegment uint16
	paragraphs   int
	ranges       []arenaRange
	allocations  *swiss.Map[uint16, int]
}

// NewArena creates an Arena managing paragraphs consecutive paragraphs starting at firstSegment
func NewArena(logger *slog.Logger, firstSegment uint16, paragraphs int, options ArenaOptions) (*Arena, error) {
	if paragraphs <= 0 {
		return nil, errors.Newf("an arena needs at least one paragraph, but %d were requested", paragraphs)
	}

	if int(firstSegment)+paragraphs > math.MaxUint16+1 {
		return nil, errors.Newf("%d paragraphs starting at segment %04x run past the last segment", paragraphs, firstSegment)
	}

	return &Arena{
		logger:       logger,
		mutex:        utils.OptionalRWMutex{UseMutex: options.UseMutex},
		firstSegment: firstSegment,
		paragraphs:   paragraphs,
		ranges:       []arenaRange{{start: 0, size: paragraphs, free: true}},
		allocations:  swiss.NewMap[uint16, int](16),
	}, nil
}

func paragraphsFor(size int) int {
	if size <= 0 {
		return 1
	}
	return (size + segaddr.ParagraphSize - 1) / segaddr.ParagraphSize
}

// Alloc reserves at least size bytes and returns the address of the first byte. The range
// chosen is the first free one large enough.
func (a *Arena) Alloc(size int) (segaddr.Addr, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	needed := paragraphsFor(size)
	for index, r := range a.ranges {
		if !r.free || r.size < needed {
			continue
		}

		if r.size > needed {
			rest := arenaRange{start: r.start + needed, size: r.size - needed, free: true}
			a.ranges = append(a.ranges, arenaRange{})
			copy(a.ranges[index+2:], a.ranges[index+1:])
			a.ranges[index+1] = rest
		}
		a.ranges[index] = arenaRange{start: r.start, size: needed}

		seg := a.firstSegment + uint16(r.start)
		a.allocations.Put(seg, needed)

		utils.DebugValidate(arenaValidator{a})
		return segaddr.Make(seg, 0), nil
	}

	return segaddr.Null, errors.Wrapf(ErrOutOfMemory, "requested %d bytes (%d paragraphs)", size, needed)
}

// Free returns a range obtained from Alloc to the arena
func (a *Arena) Free(addr segaddr.Addr) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if addr.Off != 0 {
		return errors.Wrapf(ErrNotAllocated, "%s is not at the start of a segment", addr.String())
	}

	if _, ok := a.allocations.Get(addr.Seg); !ok {
		return errors.Wrapf(ErrNotAllocated, "%s", addr.String())
	}
	a.allocations.Delete(addr.Seg)

	start := int(addr.Seg - a.firstSegment)
	index := a.rangeIndex(start)
	a.ranges[index].free = true

	if index+1 < len(a.ranges) && a.ranges[index+1].free {
		a.ranges[index].size += a.ranges[index+1].size
		a.ranges = append(a.ranges[:index+1], a.ranges[index+2:]...)
	}

	if index > 0 && a.ranges[index-1].free {
		a.ranges[index-1].size += a.ranges[index].size
		a.ranges = append(a.ranges[:index], a.ranges[index+1:]...)
	}

	utils.DebugValidate(arenaValidator{a})
	return nil
}

func (a *Arena) rangeIndex(start int) int {
	low, high := 0, len(a.ranges)
	for low < high {
		mid := (low + high) / 2
		if a.ranges[mid].start < start {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// AllocationCount returns the number of live allocations
func (a *Arena) AllocationCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.allocations.Count()
}

// Validate performs internal consistency checks on the arena
func (a *Arena) Validate() error {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return arenaValidator{a}.Validate()
}

type arenaValidator struct {
	a *Arena
}

func (v arenaValidator) Validate() error {
	a := v.a
	next := 0
	used := 0

	for index, r := range a.ranges {
		if r.start != next {
			return errors.Newf("range at index %d starts at paragraph %d, but the previous range ended at %d", index, r.start, next)
		}

		if r.size <= 0 {
			return errors.Newf("range at index %d has size %d", index, r.size)
		}

		if r.free && index > 0 && a.ranges[index-1].free {
			return errors.Newf("free ranges at index %d and %d were not merged", index-1, index)
		}

		if !r.free {
			used++
			size, ok := a.allocations.Get(a.firstSegment + uint16(r.start))
			if !ok || size != r.size {
				return errors.Newf("range at paragraph %d is allocated but is not tracked correctly", r.start)
			}
		}

		next = r.start + r.size
	}

	if next != a.paragraphs {
		return errors.Newf("ranges cover %d paragraphs, but the arena has %d", next, a.paragraphs)
	}

	if used != a.allocations.Count() {
		return errors.Newf("found %d allocated ranges, but %d allocations are tracked", used, a.allocations.Count())
	}

	return nil
}

// AddStatistics sums this arena's metrics into the provided Statistics object
func (a *Arena) AddStatistics(stats *Statistics) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	stats.BlockBytes += a.paragraphs * segaddr.ParagraphSize
	for _, r := range a.ranges {
		bytes := r.size * segaddr.ParagraphSize
		if r.free {
			stats.UnusedRangeCount++
			if bytes > stats.UnusedRangeSizeMax {
				stats.UnusedRangeSizeMax = bytes
			}
			continue
		}

		stats.AllocationCount++
		stats.AllocationBytes += bytes
	}
}

// BuildStatsString writes a json object describing the arena and each of its ranges
func (a *Arena) BuildStatsString(writer *jwriter.Writer) {
	var stats Statistics
	a.AddStatistics(&stats)

	a.mutex.RLock()
	defer a.mutex.RUnlock()

	obj := writer.Object()
	defer obj.End()

	obj.Name("FirstSegment").String(segaddr.Make(a.firstSegment, 0).String())
	obj.Name("TotalBytes").Int(stats.BlockBytes)
	obj.Name("UnusedBytes").Int(stats.BlockBytes - stats.AllocationBytes)
	obj.Name("Allocations").Int(stats.AllocationCount)
	obj.Name("UnusedRanges").Int(stats.UnusedRangeCount)

	ranges := obj.Name("Ranges").Array()
	for _, r := range a.ranges {
		item := ranges.Object()
		item.Name("Segment").String(segaddr.Make(a.firstSegment+uint16(r.start), 0).String())
		item.Name("Paragraphs").Int(r.size)
		item.Name("Free").Bool(r.free)
		item.End()
	}
	ranges.End()
}

// Destroy checks that every allocation has been freed. Leftover allocations are logged and
// reported as an error.
func (a *Arena) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.allocations.Count() == 0 {
		return nil
	}

	a.allocations.Iter(func(seg uint16, paragraphs int) bool {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed arena allocation",
			slog.String("segment", segaddr.Make(seg, 0).String()),
			slog.Int("paragraphs", paragraphs),
		)
		return false
	})

	return errors.Newf("%d allocations were not freed before the destruction of this arena", a.allocations.Count())
}
