package segaddr

import "fmt"

const (
	// FlatSegment is the segment value reserved for addresses that are not segmented at all.
	// Adjust leaves addresses in this segment untouched.
	FlatSegment uint16 = 0xffff
	// ParagraphShift is the number of bits a segment is shifted by to form a linear address
	ParagraphShift = 4
	// ParagraphSize is the number of bytes between two consecutive segment bases
	ParagraphSize = 1 << ParagraphShift
)

// Addr is a segment:offset pair naming a single byte in a 16-bit segmented address space.
//
// The field order matches the legacy in-memory layout of a far pointer (offset first, then segment),
// so an Addr stored in segmented memory occupies exactly four bytes and can be read or written
// in place through a handle.
type Addr struct {
	Off uint16
	Seg uint16
}

// Null is the null segmented address, 0000:0000
var Null Addr

// Make builds an Addr from a segment and an offset
func Make(seg, off uint16) Addr {
	return Addr{Off: off, Seg: seg}
}

// FromFP32 unpacks a 32-bit far pointer value, segment in the high word and offset in the low word
func FromFP32(value uint32) Addr {
	return Addr{Off: uint16(value & 0xffff), Seg: uint16(value >> 16)}
}

// FP32 packs the address into a 32-bit far pointer value, segment in the high word and offset in
// the low word
func (a Addr) FP32() uint32 {
	return uint32(a.Seg)<<16 | uint32(a.Off)
}

// IsNull returns true if both the segment and the offset are zero
func (a Addr) IsNull() bool {
	return a.Seg == 0 && a.Off == 0
}

// Adjust normalizes the address so that the offset is smaller than ParagraphSize, moving the
// excess into the segment. Addresses in FlatSegment are returned unchanged. Normalization never
// happens implicitly: callers that want it must ask for it.
func (a Addr) Adjust() Addr {
	if a.Seg == FlatSegment {
		return a
	}

	a.Seg += a.Off >> ParagraphShift
	a.Off &= ParagraphSize - 1
	return a
}

// AddOffset moves the offset by delta bytes. The offset wraps around at 64k exactly as 16-bit
// arithmetic would, and the segment is never touched.
func (a Addr) AddOffset(delta int) Addr {
	a.Off = uint16(int(a.Off) + delta)
	return a
}

// Linear returns the real-mode linear address seg*16+off. The result can exceed 1MiB by up to
// 64k-16 bytes when the segment is near the top of the address space.
func (a Addr) Linear() uint32 {
	return uint32(a.Seg)<<ParagraphShift + uint32(a.Off)
}

func (a Addr) String() string {
	return fmt.Sprintf("%04x:%04x", a.Seg, a.Off)
}
