package sizelib

import (
	"github.com/AnishMulay/sizefs/internal/communication"
)

// SizeFSClient talks to one remote SizeFS server. It holds no per-file
// state, so it is safe for concurrent use whenever Comm is.
type SizeFSClient struct {
	ServerAddr string
	Comm       communication.Communicator
	// From identifies the client in server logs.
	From string
}
