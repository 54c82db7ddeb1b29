// Package farptr provides far pointers into a segmented 16-bit address space.
//
// A far pointer names memory by a segment and an offset (see package segaddr). Handles in this
// package carry such an address, may hold a reference to a native object bound into segmented
// memory (see package farobj), and are resolved to native memory through an Env. Pointer
// arithmetic only ever moves the offset, wrapping at 64k, the way 16-bit code does.
//
// Conversions between handle types follow a fixed rule: a handle converts implicitly to or from a
// void or byte handle as long as constness is not dropped. The conversion functions only exist for
// combinations that obey the rule, so a forbidden conversion fails to compile. Cast and ConstCast
// convert explicitly. A converted handle holds its own reference to the source's object and must
// be released like any other.
package farptr
