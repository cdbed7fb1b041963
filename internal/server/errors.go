package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AnishMulay/sizefs/internal/communication"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
)

var (
	ErrInvalidPayloadType = errors.New("invalid payload type for message")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrReadTooLarge       = errors.New("read length exceeds limit")
)

// Ordered so that the more specific conditions win when matching a remote
// error text.
var remoteErrors = []error{
	pms.ErrInvalidAttributeValue,
	pms.ErrNoAttribute,
	pms.ErrNotFound,
	pms.ErrAlreadyExists,
	pms.ErrNotDir,
	pms.ErrIsDir,
	pms.ErrNotEmpty,
	pms.ErrPermission,
	pms.ErrInvalid,
	ErrInvalidPayloadType,
	ErrUnknownMessageType,
	ErrReadTooLarge,
}

// CodeFor maps a service error onto the wire status.
func CodeFor(err error) communication.SandCode {
	switch {
	case err == nil:
		return communication.CodeOK
	case errors.Is(err, pms.ErrNotFound), errors.Is(err, pms.ErrNoAttribute):
		return communication.CodeNotFound
	case errors.Is(err, pms.ErrAlreadyExists), errors.Is(err, pms.ErrNotEmpty):
		return communication.CodeAlreadyExists
	case errors.Is(err, pms.ErrPermission):
		return communication.CodePermissionDenied
	case errors.Is(err, pms.ErrInvalid),
		errors.Is(err, pms.ErrNotDir),
		errors.Is(err, pms.ErrIsDir),
		errors.Is(err, pms.ErrInvalidAttributeValue),
		errors.Is(err, ErrInvalidPayloadType),
		errors.Is(err, ErrUnknownMessageType),
		errors.Is(err, ErrReadTooLarge):
		return communication.CodeBadRequest
	default:
		return communication.CodeInternal
	}
}

// ErrorFromResponse turns a non-OK response back into an error that
// matches the service sentinels with errors.Is.
func ErrorFromResponse(resp *communication.Response) error {
	err := resp.Err()
	if err == nil {
		return nil
	}
	text := string(resp.Body)
	for _, sentinel := range remoteErrors {
		if strings.Contains(text, sentinel.Error()) {
			return fmt.Errorf("%w: remote: %s", sentinel, text)
		}
	}
	return err
}
