package metadata_service

import (
	"errors"

	"github.com/AnishMulay/sizefs/internal/content_service"
)

// Errors mapped to POSIX concepts by the transports.
var (
	ErrNotFound      = errors.New("no such file or directory")
	ErrAlreadyExists = errors.New("file exists")
	ErrNotDir        = errors.New("not a directory")
	ErrIsDir         = errors.New("is a directory")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrPermission    = errors.New("operation not permitted")
	ErrInvalid       = errors.New("invalid argument")
	ErrNoAttribute   = errors.New("no such attribute")

	ErrInvalidAttributeValue = content_service.ErrInvalidAttributeValue
)
