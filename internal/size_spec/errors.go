package size_spec

import "errors"

var (
	ErrInvalidSizeFormat = errors.New("invalid size format")
	ErrSizeOverflow      = errors.New("size overflows 64 bits")
	ErrSizeUnderflow     = errors.New("size would be negative")
)
