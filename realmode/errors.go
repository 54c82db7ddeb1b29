package realmode

import "github.com/pkg/errors"

// ErrOutOfMemory is the error returned from Arena.Alloc if no free range is large enough
var ErrOutOfMemory error = errors.New("not enough free paragraphs in the arena")

// ErrNotAllocated is the error returned from Arena.Free if the address was not returned by Alloc
var ErrNotAllocated error = errors.New("address was not allocated from this arena")
