package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/AnishMulay/sizefs/internal/communication"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want communication.SandCode
	}{
		{nil, communication.CodeOK},
		{pms.ErrNotFound, communication.CodeNotFound},
		{fmt.Errorf("lookup: %w", pms.ErrNoAttribute), communication.CodeNotFound},
		{pms.ErrAlreadyExists, communication.CodeAlreadyExists},
		{pms.ErrNotEmpty, communication.CodeAlreadyExists},
		{fmt.Errorf("%w: size", pms.ErrPermission), communication.CodePermissionDenied},
		{pms.ErrIsDir, communication.CodeBadRequest},
		{pms.ErrInvalidAttributeValue, communication.CodeBadRequest},
		{ErrReadTooLarge, communication.CodeBadRequest},
		{errors.New("disk on fire"), communication.CodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CodeFor(tt.err), "%v", tt.err)
	}
}

func TestErrorFromResponse(t *testing.T) {
	assert.NoError(t, ErrorFromResponse(&communication.Response{Code: communication.CodeOK}))

	for _, sentinel := range []error{pms.ErrNotEmpty, pms.ErrIsDir, pms.ErrNoAttribute, pms.ErrInvalidAttributeValue, pms.ErrPermission} {
		wrapped := fmt.Errorf("op: %w", sentinel)
		err := ErrorFromResponse(&communication.Response{Code: CodeFor(wrapped), Body: []byte(wrapped.Error())})
		assert.ErrorIs(t, err, sentinel)
	}

	err := ErrorFromResponse(&communication.Response{Code: communication.CodeInternal, Body: []byte("strange")})
	var codeErr *communication.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, communication.CodeInternal, codeErr.Code)
}
