package mount

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/AnishMulay/sizefs/internal/config"
	"github.com/AnishMulay/sizefs/internal/fuse_server"
	logservice "github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/AnishMulay/sizefs/internal/metrics"
	"github.com/AnishMulay/sizefs/servers/stack"
)

type Options struct {
	Config *config.Config
	// Debug turns on go-fuse request tracing.
	Debug bool
}

type runnable interface {
	Run() error
}

type mountServer struct {
	stack   *stack.Stack
	fuse    *fuse_server.FuseServer
	metrics *metrics.Server
}

func (s *mountServer) Run() error {
	defer s.stack.Close()

	if s.metrics != nil {
		if err := s.metrics.Start(); err != nil {
			return err
		}
		defer s.metrics.Stop()
	}

	if err := s.fuse.Start(); err != nil {
		return err
	}

	unmounted := make(chan struct{})
	go func() {
		s.fuse.Wait()
		close(unmounted)
	}()

	// Wait for termination signal or an external unmount
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		s.stack.Logs.Info(logservice.LogEvent{
			Message:  "Received signal, unmounting",
			Metadata: map[string]any{"signal": sig.String()},
		})
		return s.fuse.Stop()
	case <-unmounted:
		s.stack.Logs.Info(logservice.LogEvent{Message: "Filesystem unmounted externally"})
		return s.stack.Files.Stop()
	}
}

func Build(opts Options) (runnable, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// 1. Shared services
	st, err := stack.Build(cfg)
	if err != nil {
		return nil, err
	}

	// 2. FUSE gateway
	fs := fuse_server.NewFuseServer(fuse_server.Options{
		Mountpoint:  cfg.Mount.Mountpoint,
		AllowOther:  cfg.Mount.AllowOther,
		Debug:       opts.Debug,
		AttrTimeout: cfg.Mount.AttrTimeout,
	}, st.Files, st.Logs)

	srv := &mountServer{stack: st, fuse: fs}
	if cfg.Remote.MetricsAddress != "" {
		srv.metrics = metrics.NewServer(cfg.Remote.MetricsAddress, st.Metrics, st.Logs)
	}
	return srv, nil
}
