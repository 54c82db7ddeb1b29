package farptr

// SegmentSource supplies the segment a NearPointer is combined with. Implementations are usually
// empty structs whose Segment method reads some piece of global state, such as the current data
// segment. Segment is called every time a NearPointer is resolved and its result is never cached.
type SegmentSource interface {
	Segment() uint16
}

// NearPointer is an offset-only pointer to a T. Its segment comes from S at the moment the pointer
// is used. NearPointers bound to different segment sources are different types, so they cannot be
// mixed.
type NearPointer[T any, S SegmentSource] struct {
	off uint16
}

// NewNear creates a NearPointer from an offset
func NewNear[T any, S SegmentSource](off uint16) NearPointer[T, S] {
	return NearPointer[T, S]{off: off}
}

// Off returns the offset
func (n NearPointer[T, S]) Off() uint16 { return n.off }

// IsNull returns true if the offset is zero
func (n NearPointer[T, S]) IsNull() bool { return n.off == 0 }

// Add returns a NearPointer count elements past n
func (n NearPointer[T, S]) Add(count int) NearPointer[T, S] {
	return NearPointer[T, S]{off: uint16(int(n.off) + count*sizeOf[T]())}
}

// Sub returns a NearPointer count elements before n
func (n NearPointer[T, S]) Sub(count int) NearPointer[T, S] {
	return n.Add(-count)
}

// Diff returns the distance in bytes from other to n. The segment cancels out because both
// pointers are bound to the same segment source.
func (n NearPointer[T, S]) Diff(other NearPointer[T, S]) uint16 {
	return n.off - other.off
}

// Far combines the offset with the current segment from S
func (n NearPointer[T, S]) Far() Pointer[T] {
	var source S
	return New[T](source.Segment(), n.off)
}

// Get resolves n to a native pointer using the current segment from S
func (n NearPointer[T, S]) Get(env *Env) *T {
	return n.Far().Get(env)
}
