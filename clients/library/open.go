package sizelib

import (
	"fmt"

	"github.com/AnishMulay/sizefs/internal/communication"
	grpccomm "github.com/AnishMulay/sizefs/internal/communication/grpc"
	httpcomm "github.com/AnishMulay/sizefs/internal/communication/http"
	"github.com/AnishMulay/sizefs/internal/config"
	"github.com/AnishMulay/sizefs/servers/stack"
)

// Open connects to the server at remoteAddr over cfg's communicator, or
// builds an in-process stack from cfg when remoteAddr is empty. The
// returned func releases whichever was opened.
func Open(cfg *config.Config, remoteAddr string) (FileSystem, func() error, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if remoteAddr != "" {
		var comm communication.Communicator
		switch cfg.Remote.Communicator {
		case config.CommunicatorHTTP:
			comm = httpcomm.NewHTTPCommunicator("", nil)
		default:
			comm = grpccomm.NewGRPCCommunicator("", nil)
		}
		return NewSizeFSClient(remoteAddr, comm), comm.Stop, nil
	}

	st, err := stack.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Files.Start(); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to start file service: %w", err)
	}
	closer := func() error {
		_ = st.Files.Stop()
		return st.Close()
	}
	return NewLocalClient(st.Files), closer, nil
}
