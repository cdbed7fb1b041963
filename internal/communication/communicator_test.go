package communication

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readRequest struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
}

func TestPayloadRegistryDecode(t *testing.T) {
	r := NewPayloadRegistry()
	r.Register("read", reflect.TypeOf(&readRequest{}))

	got, err := r.Decode("read", []byte(`{"path":"/zeros/4M","offset":18446744073709551615}`))
	require.NoError(t, err)
	assert.Equal(t, readRequest{Path: "/zeros/4M", Offset: 1<<64 - 1}, got)

	got, err = r.Decode("read", []byte(" null "))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Decode("fsstat", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = r.Decode("unknown", []byte(`{}`))
	assert.ErrorIs(t, err, ErrPayloadUnmarshalFailed)

	_, err = r.Decode("read", []byte(`{"offset":"x"}`))
	assert.ErrorIs(t, err, ErrPayloadUnmarshalFailed)
}

func TestResponseErr(t *testing.T) {
	assert.NoError(t, (&Response{Code: CodeOK}).Err())

	err := (&Response{Code: CodeNotFound, Body: []byte("no such file")}).Err()
	var codeErr *CodeError
	require.True(t, errors.As(err, &codeErr))
	assert.Equal(t, CodeNotFound, codeErr.Code)
	assert.Equal(t, "NOT_FOUND: no such file", err.Error())

	var nilResp *Response
	assert.Error(t, nilResp.Err())
	assert.Equal(t, "INTERNAL", (&CodeError{Code: CodeInternal}).Error())
}
