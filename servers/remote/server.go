package remote

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/AnishMulay/sizefs/internal/communication"
	grpccomm "github.com/AnishMulay/sizefs/internal/communication/grpc"
	httpcomm "github.com/AnishMulay/sizefs/internal/communication/http"
	"github.com/AnishMulay/sizefs/internal/config"
	logservice "github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/AnishMulay/sizefs/internal/metrics"
	simpleserver "github.com/AnishMulay/sizefs/internal/server/simple"
	"github.com/AnishMulay/sizefs/servers/stack"
)

type Options struct {
	Config *config.Config
}

// RemoteServer serves the message protocol until told to stop.
type RemoteServer struct {
	stack   *stack.Stack
	server  *simpleserver.SimpleServer
	metrics *metrics.Server
}

func (s *RemoteServer) Start() error {
	if s.metrics != nil {
		if err := s.metrics.Start(); err != nil {
			return err
		}
	}
	if err := s.server.Start(); err != nil {
		if s.metrics != nil {
			_ = s.metrics.Stop()
		}
		return err
	}
	return nil
}

func (s *RemoteServer) Stop() error {
	var errs []error
	errs = append(errs, s.server.Stop())
	if s.metrics != nil {
		errs = append(errs, s.metrics.Stop())
	}
	errs = append(errs, s.stack.Close())
	return errors.Join(errs...)
}

// Address is where the message endpoint listens once started.
func (s *RemoteServer) Address() string {
	return s.server.Address()
}

func (s *RemoteServer) Run() error {
	if err := s.Start(); err != nil {
		_ = s.stack.Close()
		return err
	}

	// Wait for termination signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)
	sig := <-c

	s.stack.Logs.Info(logservice.LogEvent{
		Message:  "Received signal, shutting down",
		Metadata: map[string]any{"signal": sig.String()},
	})
	return s.Stop()
}

// NewCommunicator picks the transport named in cfg. The HTTP transport
// also serves /metrics.
func NewCommunicator(cfg config.RemoteConfig, ls logservice.LogService, m *metrics.Metrics) communication.Communicator {
	if cfg.Communicator == config.CommunicatorHTTP {
		return httpcomm.NewHTTPCommunicator(cfg.Listen, ls, httpcomm.WithMetricsHandler(m.Handler()))
	}
	return grpccomm.NewGRPCCommunicator(cfg.Listen, ls)
}

func Build(opts Options) (*RemoteServer, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// 1. Shared services
	st, err := stack.Build(cfg)
	if err != nil {
		return nil, err
	}

	// 2. Communication
	comm := NewCommunicator(cfg.Remote, st.Logs, st.Metrics)

	// 3. Server (the gateway)
	srv := &RemoteServer{
		stack:  st,
		server: simpleserver.NewSimpleServer(comm, st.Files, st.Logs),
	}
	if cfg.Remote.MetricsAddress != "" {
		srv.metrics = metrics.NewServer(cfg.Remote.MetricsAddress, st.Metrics, st.Logs)
	}
	return srv, nil
}
