package farobj

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/farptr"
)

// callerLabel names the code that called a Bind function
func callerLabel(kind string) string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return kind
	}
	return fmt.Sprintf("%s@%s:%d", kind, filepath.Base(file), line)
}

func flatBytes[T any](native *T, count int) ([]byte, error) {
	var zero T
	if !farptr.IsFlat[T]() {
		return nil, errors.Newf("type %T cannot be bound into segmented memory: it is not a flat layout", zero)
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(native)), int(unsafe.Sizeof(zero))*count), nil
}

// Bind copies *native into segmented memory and returns a Pointer holding the only reference to
// it. Changes made through the segmented copy reach *native when the object is synced.
func Bind[T any](pool *Pool, native *T) (farptr.Pointer[T], error) {
	raw, err := flatBytes(native, 1)
	if err != nil {
		return farptr.Pointer[T]{}, err
	}

	obj, err := pool.bind(raw, len(raw), len(raw), false, callerLabel("Bind"))
	if err != nil {
		return farptr.Pointer[T]{}, err
	}
	return farptr.NewOwned[T](obj), nil
}

// BindConst copies *native into segmented memory as a read-only object
func BindConst[T any](pool *Pool, native *T) (farptr.ConstPointer[T], error) {
	raw, err := flatBytes(native, 1)
	if err != nil {
		return farptr.ConstPointer[T]{}, err
	}

	obj, err := pool.bind(raw, len(raw), len(raw), true, callerLabel("BindConst"))
	if err != nil {
		return farptr.ConstPointer[T]{}, err
	}
	return farptr.NewOwnedConst[T](obj), nil
}

// BindArray copies every element of native into segmented memory and returns a Pointer to the
// first element
func BindArray[T any](pool *Pool, native []T) (farptr.Pointer[T], error) {
	if len(native) == 0 {
		return farptr.Pointer[T]{}, errors.New("cannot bind an empty array")
	}

	raw, err := flatBytes(&native[0], len(native))
	if err != nil {
		return farptr.Pointer[T]{}, err
	}

	obj, err := pool.bind(raw, len(raw), len(raw)/len(native), false, callerLabel("BindArray"))
	if err != nil {
		return farptr.Pointer[T]{}, err
	}
	return farptr.NewOwned[T](obj), nil
}

// BindString copies a NUL-terminated string held in buffer into segmented memory. Only the bytes
// up to and including the first NUL are bound. If buffer holds no NUL, the whole buffer is bound
// and the segmented copy is terminated.
func BindString(pool *Pool, buffer []byte) (farptr.Pointer[byte], error) {
	if len(buffer) == 0 {
		return farptr.Pointer[byte]{}, errors.New("cannot bind an empty string buffer")
	}

	raw := buffer
	allocSize := len(buffer) + 1
	if end := bytes.IndexByte(buffer, 0); end >= 0 {
		raw = buffer[:end+1]
		allocSize = len(raw)
	}

	obj, err := pool.bind(raw, allocSize, 1, false, callerLabel("BindString"))
	if err != nil {
		return farptr.Pointer[byte]{}, err
	}
	return farptr.NewOwned[byte](obj), nil
}

// BindConstString copies value into segmented memory as a read-only NUL-terminated string
func BindConstString(pool *Pool, value string) (farptr.ConstPointer[byte], error) {
	raw := unsafe.Slice(unsafe.StringData(value), len(value))

	obj, err := pool.bind(raw, len(value)+1, 1, true, callerLabel("BindConstString"))
	if err != nil {
		return farptr.ConstPointer[byte]{}, err
	}
	return farptr.NewOwnedConst[byte](obj), nil
}
