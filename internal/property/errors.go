package property

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrInvalidPath is returned when a property path cannot be parsed.
	ErrInvalidPath = errors.New("invalid property path")
	// ErrIndexOutOfRange is returned when a path addresses a sequence index past the allowed extension.
	ErrIndexOutOfRange = errors.New("sequence index out of range")
	// ErrPathTypeMismatch is returned when a segment expects a mapping but finds a sequence (or the reverse).
	ErrPathTypeMismatch = errors.New("path type mismatch")
)

func invalidPath(path, reason string) error {
	return oops.Code("INVALID_PATH").
		With("path", path).
		With("reason", reason).
		Wrapf(ErrInvalidPath, "%s", reason)
}

func outOfRange(p Path, i, index, length int) error {
	return oops.Code("INDEX_OUT_OF_RANGE").
		With("path", p.String()).
		With("segment", p[:i+1].String()).
		With("index", index).
		With("length", length).
		Wrap(ErrIndexOutOfRange)
}

func mismatch(p Path, i int, found string) error {
	return oops.Code("PATH_TYPE_MISMATCH").
		With("path", p.String()).
		With("segment", p[:i+1].String()).
		With("found", found).
		Wrap(ErrPathTypeMismatch)
}
