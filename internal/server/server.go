package server

// Server is anything that serves the generated tree: a FUSE mount or a
// message endpoint.
type Server interface {
	Start() error
	Stop() error
}
