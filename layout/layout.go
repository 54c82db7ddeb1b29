package layout

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr"
)

// Descriptor describes one field of a struct laid out in segmented memory
type Descriptor struct {
	Name   string
	Offset uintptr
	Size   uintptr
	// Len is the number of elements for an array field, and 0 for a scalar field
	Len int
}

func (d Descriptor) String() string {
	if d.Len > 0 {
		return fmt.Sprintf("%s[%d]@%#x", d.Name, d.Len, d.Offset)
	}
	return fmt.Sprintf("%s@%#x", d.Name, d.Offset)
}

// Layout is the table of fields of a struct type P whose values live in segmented memory. A
// Layout is built once, usually into a package-level variable, by calling AddField and AddArray
// with offsets taken from unsafe.Offsetof.
type Layout[P any] struct {
	name   string
	size   uintptr
	fields []Descriptor
}

// New creates an empty Layout for P. It panics if P does not have a flat layout.
func New[P any](name string) *Layout[P] {
	if !farptr.IsFlat[P]() {
		panic(errors.AssertionFailedf("struct %s cannot live in segmented memory: it is not a flat layout", name))
	}

	var zero P
	return &Layout[P]{
		name: name,
		size: unsafe.Sizeof(zero),
	}
}

// Name returns the name the Layout was created with
func (l *Layout[P]) Name() string { return l.name }

// Size returns the size of P in bytes
func (l *Layout[P]) Size() uintptr { return l.size }

// Fields returns every field added to the Layout, in the order they were added
func (l *Layout[P]) Fields() []Descriptor {
	fields := make([]Descriptor, len(l.fields))
	copy(fields, l.fields)
	return fields
}

// Field returns the descriptor of the named field
func (l *Layout[P]) Field(name string) (Descriptor, bool) {
	for _, field := range l.fields {
		if field.Name == name {
			return field, true
		}
	}
	return Descriptor{}, false
}

func (l *Layout[P]) add(field Descriptor) {
	if field.Offset+field.Size > l.size {
		panic(errors.AssertionFailedf("field %s of %s runs past the end of the struct, which is %d bytes", field.String(), l.name, l.size))
	}

	if _, exists := l.Field(field.Name); exists {
		panic(errors.AssertionFailedf("field %s was added to %s twice", field.Name, l.name))
	}

	l.fields = append(l.fields, field)
}

// AddField adds a scalar field of type T at offset within P
func AddField[P, T any](l *Layout[P], name string, offset uintptr) Field[P, T] {
	var zero T
	l.add(Descriptor{Name: name, Offset: offset, Size: unsafe.Sizeof(zero)})

	return Field[P, T]{Name: name, Offset: offset}
}

// AddArray adds an array field of length elements of type E at offset within P
func AddArray[P, E any](l *Layout[P], name string, offset uintptr, length int) ArrayField[P, E] {
	var zero E
	l.add(Descriptor{Name: name, Offset: offset, Size: unsafe.Sizeof(zero) * uintptr(length), Len: length})

	return ArrayField[P, E]{Name: name, Offset: offset, Len: length}
}
