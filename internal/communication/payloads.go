package communication

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// PayloadRegistry maps message types to the Go type their JSON payload
// decodes into. Decoded payloads are values, not pointers.
type PayloadRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

func NewPayloadRegistry() *PayloadRegistry {
	return &PayloadRegistry{types: make(map[string]reflect.Type)}
}

func (r *PayloadRegistry) Register(msgType string, payloadType reflect.Type) {
	if payloadType.Kind() == reflect.Pointer {
		payloadType = payloadType.Elem()
	}
	r.mu.Lock()
	r.types[msgType] = payloadType
	r.mu.Unlock()
}

// Decode returns nil for an empty or null payload.
func (r *PayloadRegistry) Decode(msgType string, raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	r.mu.RLock()
	payloadType, ok := r.types[msgType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no payload type registered for %q", ErrPayloadUnmarshalFailed, msgType)
	}

	value := reflect.New(payloadType)
	if err := json.Unmarshal(raw, value.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadUnmarshalFailed, err)
	}
	return value.Elem().Interface(), nil
}
