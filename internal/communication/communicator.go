package communication

import (
	"context"
	"fmt"
	"reflect"
)

// SandCode is the transport independent status of a Response.
type SandCode string

const (
	CodeOK               SandCode = "OK"
	CodeBadRequest       SandCode = "BAD_REQUEST"
	CodeNotFound         SandCode = "NOT_FOUND"
	CodeAlreadyExists    SandCode = "ALREADY_EXISTS"
	CodePermissionDenied SandCode = "PERMISSION_DENIED"
	CodeInternal         SandCode = "INTERNAL"
	CodeUnavailable      SandCode = "UNAVAILABLE"
)

type Message struct {
	From    string `json:"from"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type Response struct {
	Code    SandCode          `json:"code"`
	Body    []byte            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Err returns nil for CodeOK and a *CodeError carrying the body text otherwise.
func (r *Response) Err() error {
	if r == nil {
		return &CodeError{Code: CodeInternal, Message: "empty response"}
	}
	if r.Code == CodeOK {
		return nil
	}
	return &CodeError{Code: r.Code, Message: string(r.Body)}
}

// CodeError is a non-OK Response seen from the sending side.
type CodeError struct {
	Code    SandCode
	Message string
}

func (e *CodeError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Communicator interface {
	Start(handler MessageHandler) error
	Stop() error
	Send(ctx context.Context, to string, msg Message) (*Response, error)
	Address() string
	RegisterPayloadType(msgType string, payloadType reflect.Type)
}
