package httpcomm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/AnishMulay/sizefs/internal/communication"
	"github.com/AnishMulay/sizefs/internal/log_service"
)

// CodeHeader carries the exact SandCode alongside the HTTP status.
const CodeHeader = "X-Sand-Code"

type wireMessage struct {
	From    string          `json:"from"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Option func(*HTTPCommunicator)

// WithMetricsHandler serves h on /metrics next to /message.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *HTTPCommunicator) { c.metrics = h }
}

// WithClientTimeout bounds every outgoing request.
func WithClientTimeout(d time.Duration) Option {
	return func(c *HTTPCommunicator) { c.clientTimeout = d }
}

type HTTPCommunicator struct {
	listenAddress string
	httpServer    *http.Server
	listener      net.Listener
	handler       communication.MessageHandler
	ls            log_service.LogService
	metrics       http.Handler
	clientTimeout time.Duration

	clientLock   sync.RWMutex
	clients      map[string]*http.Client
	payloadTypes *communication.PayloadRegistry
}

func NewHTTPCommunicator(listenAddress string, ls log_service.LogService, opts ...Option) *HTTPCommunicator {
	if ls == nil {
		ls = log_service.Nop{}
	}
	c := &HTTPCommunicator{
		listenAddress: listenAddress,
		ls:            ls,
		clientTimeout: 30 * time.Second,
		clients:       make(map[string]*http.Client),
		payloadTypes:  communication.NewPayloadRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPCommunicator) RegisterPayloadType(msgType string, payloadType reflect.Type) {
	c.payloadTypes.Register(msgType, payloadType)
}

// Address is the bound address once started, the configured one before.
func (c *HTTPCommunicator) Address() string {
	if c.listener != nil {
		return c.listener.Addr().String()
	}
	return c.listenAddress
}

func (c *HTTPCommunicator) Start(handler communication.MessageHandler) error {
	c.ls.Info(log_service.LogEvent{
		Message:  "Starting HTTP communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	c.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc("/message", c.handleHTTPMessage)
	if c.metrics != nil {
		mux.Handle("/metrics", c.metrics)
	}

	lis, err := net.Listen("tcp", c.listenAddress)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to listen on address",
			Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
		})
		return fmt.Errorf("%w: %v", communication.ErrServerStartFailed, err)
	}
	c.listener = lis
	c.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	c.ls.Info(log_service.LogEvent{
		Message:  "HTTP communicator started successfully",
		Metadata: map[string]any{"address": c.Address()},
	})

	go func() {
		if err := c.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.ls.Error(log_service.LogEvent{
				Message:  "HTTP server error",
				Metadata: map[string]any{"address": c.Address(), "error": err.Error()},
			})
		}
	}()

	return nil
}

func (c *HTTPCommunicator) Stop() error {
	if c.httpServer == nil {
		return nil
	}
	c.ls.Info(log_service.LogEvent{
		Message:  "Stopping HTTP communicator",
		Metadata: map[string]any{"address": c.Address()},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.httpServer.Shutdown(ctx); err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to stop HTTP server",
			Metadata: map[string]any{"address": c.Address(), "error": err.Error()},
		})
		return communication.ErrServerStopFailed
	}

	c.ls.Info(log_service.LogEvent{
		Message:  "HTTP communicator stopped successfully",
		Metadata: map[string]any{"address": c.Address()},
	})
	return nil
}

func mapFromHTTPCode(code int) communication.SandCode {
	switch code {
	case http.StatusOK:
		return communication.CodeOK
	case http.StatusBadRequest:
		return communication.CodeBadRequest
	case http.StatusNotFound:
		return communication.CodeNotFound
	case http.StatusConflict:
		return communication.CodeAlreadyExists
	case http.StatusForbidden:
		return communication.CodePermissionDenied
	case http.StatusServiceUnavailable:
		return communication.CodeUnavailable
	default:
		return communication.CodeInternal
	}
}

func mapToHTTPCode(code communication.SandCode) int {
	switch code {
	case communication.CodeOK:
		return http.StatusOK
	case communication.CodeBadRequest:
		return http.StatusBadRequest
	case communication.CodeNotFound:
		return http.StatusNotFound
	case communication.CodeAlreadyExists:
		return http.StatusConflict
	case communication.CodePermissionDenied:
		return http.StatusForbidden
	case communication.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (c *HTTPCommunicator) client(to string) *http.Client {
	c.clientLock.RLock()
	client, ok := c.clients[to]
	c.clientLock.RUnlock()
	if ok {
		return client
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "Creating new HTTP client",
		Metadata: map[string]any{"to": to},
	})
	c.clientLock.Lock()
	defer c.clientLock.Unlock()
	if client, ok = c.clients[to]; !ok {
		client = &http.Client{Timeout: c.clientTimeout}
		c.clients[to] = client
	}
	return client
}

func (c *HTTPCommunicator) Send(ctx context.Context, to string, msg communication.Message) (*communication.Response, error) {
	c.ls.Debug(log_service.LogEvent{
		Message:  "Sending HTTP message",
		Metadata: map[string]any{"to": to, "type": msg.Type, "from": msg.From},
	})

	if msg.From == "" {
		msg.From = c.Address()
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to marshal message",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, communication.ErrMessageMarshalFailed
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("http://%s/message", to), bytes.NewReader(jsonData))
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to create HTTP request",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, communication.ErrHTTPRequestCreateFailed
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client(to).Do(httpReq)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to send HTTP request",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, fmt.Errorf("%w: %v", communication.ErrHTTPRequestSendFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to read HTTP response",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, communication.ErrHTTPResponseReadFailed
	}

	code := mapFromHTTPCode(resp.StatusCode)
	if exact := resp.Header.Get(CodeHeader); exact != "" {
		code = communication.SandCode(exact)
	}

	headers := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "HTTP message sent successfully",
		Metadata: map[string]any{"to": to, "type": msg.Type, "status": resp.StatusCode},
	})

	return &communication.Response{
		Code:    code,
		Body:    body,
		Headers: headers,
	}, nil
}

func (c *HTTPCommunicator) handleHTTPMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		c.ls.Warn(log_service.LogEvent{
			Message:  "HTTP method not allowed",
			Metadata: map[string]any{"method": r.Method, "remoteAddr": r.RemoteAddr},
		})
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to read HTTP request body",
			Metadata: map[string]any{"remoteAddr": r.RemoteAddr, "error": err.Error()},
		})
		c.writeError(w, communication.CodeBadRequest, communication.ErrHTTPBodyReadFailed)
		return
	}

	var raw wireMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Invalid JSON in request",
			Metadata: map[string]any{"remoteAddr": r.RemoteAddr, "error": err.Error()},
		})
		c.writeError(w, communication.CodeBadRequest, communication.ErrInvalidJSON)
		return
	}

	if raw.Type == "" {
		c.writeError(w, communication.CodeBadRequest, communication.ErrMissingRequiredFields)
		return
	}

	if c.handler == nil {
		c.writeError(w, communication.CodeUnavailable, communication.ErrHandlerNotSet)
		return
	}

	payload, err := c.payloadTypes.Decode(raw.Type, raw.Payload)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to decode payload",
			Metadata: map[string]any{"type": raw.Type, "error": err.Error()},
		})
		c.writeError(w, communication.CodeBadRequest, err)
		return
	}

	msg := communication.Message{From: raw.From, Type: raw.Type, Payload: payload}
	resp, err := c.handler(r.Context(), msg)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Message handler error",
			Metadata: map[string]any{"from": raw.From, "type": raw.Type, "error": err.Error()},
		})
		c.writeError(w, communication.CodeInternal, err)
		return
	}
	if resp == nil {
		resp = &communication.Response{Code: communication.CodeOK}
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set(CodeHeader, string(resp.Code))
	httpStatus := mapToHTTPCode(resp.Code)
	w.WriteHeader(httpStatus)
	if resp.Body != nil {
		if _, err := w.Write(resp.Body); err != nil {
			c.ls.Error(log_service.LogEvent{
				Message:  "Failed to write HTTP response body",
				Metadata: map[string]any{"type": raw.Type, "error": err.Error()},
			})
		}
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "HTTP response sent",
		Metadata: map[string]any{"to": raw.From, "code": resp.Code, "httpStatus": httpStatus},
	})
}

func (c *HTTPCommunicator) writeError(w http.ResponseWriter, code communication.SandCode, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(CodeHeader, string(code))
	w.WriteHeader(mapToHTTPCode(code))
	_, _ = io.WriteString(w, err.Error())
}
