package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/AnishMulay/sizefs/internal/log_service"
)

// Server serves /metrics on its own listener for transports that cannot
// share one, such as gRPC.
type Server struct {
	addr     string
	m        *Metrics
	ls       log_service.LogService
	listener net.Listener
	srv      *http.Server
}

func NewServer(addr string, m *Metrics, ls log_service.LogService) *Server {
	if ls == nil {
		ls = log_service.Nop{}
	}
	return &Server{addr: addr, m: m, ls: ls}
}

func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listen on %s: %w", s.addr, err)
	}
	s.listener = lis

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.m.Handler())
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.ls.Error(log_service.LogEvent{
				Message:  "Metrics server error",
				Metadata: map[string]any{"address": s.Address(), "error": err.Error()},
			})
		}
	}()
	s.ls.Info(log_service.LogEvent{
		Message:  "Serving metrics",
		Metadata: map[string]any{"address": s.Address()},
	})
	return nil
}

func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
