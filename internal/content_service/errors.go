package content_service

import "errors"

var ErrInvalidAttributeValue = errors.New("invalid attribute value")
