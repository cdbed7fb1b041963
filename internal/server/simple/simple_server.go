package simple

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/AnishMulay/sizefs/internal/communication"
	pfs "github.com/AnishMulay/sizefs/internal/file_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	ps "github.com/AnishMulay/sizefs/internal/server"
)

// SimpleServer exposes a FileService over a Communicator.
type SimpleServer struct {
	comm communication.Communicator
	fs   pfs.FileService
	ls   log_service.LogService
}

var _ ps.Server = (*SimpleServer)(nil)

func NewSimpleServer(comm communication.Communicator, fs pfs.FileService, ls log_service.LogService) *SimpleServer {
	if ls == nil {
		ls = log_service.Nop{}
	}
	return &SimpleServer{comm: comm, fs: fs, ls: ls}
}

func (s *SimpleServer) Start() error {
	s.ls.Info(log_service.LogEvent{Message: "Starting SizeFS message server"})

	// 1. Register Payload Types with Communicator
	s.registerPayloads()

	// 2. Start File Service (which starts the metadata service)
	if err := s.fs.Start(); err != nil {
		return err
	}

	// 3. Start Communicator with our central handler
	if err := s.comm.Start(s.handleMessage); err != nil {
		_ = s.fs.Stop()
		return err
	}
	s.ls.Info(log_service.LogEvent{
		Message:  "SizeFS message server listening",
		Metadata: map[string]any{"address": s.comm.Address()},
	})
	return nil
}

func (s *SimpleServer) Stop() error {
	s.ls.Info(log_service.LogEvent{Message: "Stopping SizeFS message server"})
	if err := s.comm.Stop(); err != nil {
		s.ls.Error(log_service.LogEvent{Message: "Failed to stop communicator", Metadata: map[string]any{"error": err.Error()}})
	}
	return s.fs.Stop()
}

// Address is where clients reach the server.
func (s *SimpleServer) Address() string {
	return s.comm.Address()
}

func (s *SimpleServer) registerPayloads() {
	s.comm.RegisterPayloadType(ps.MsgLookupPath, reflect.TypeOf(ps.LookupPathRequest{}))
	s.comm.RegisterPayloadType(ps.MsgGetAttr, reflect.TypeOf(ps.GetAttrRequest{}))
	s.comm.RegisterPayloadType(ps.MsgReadDir, reflect.TypeOf(ps.ReadDirRequest{}))
	s.comm.RegisterPayloadType(ps.MsgFsStat, reflect.TypeOf(ps.FsStatRequest{}))
	s.comm.RegisterPayloadType(ps.MsgCreate, reflect.TypeOf(ps.CreateRequest{}))
	s.comm.RegisterPayloadType(ps.MsgRead, reflect.TypeOf(ps.ReadRequest{}))
	s.comm.RegisterPayloadType(ps.MsgMkdir, reflect.TypeOf(ps.MkdirRequest{}))
	s.comm.RegisterPayloadType(ps.MsgRemove, reflect.TypeOf(ps.RemoveRequest{}))
	s.comm.RegisterPayloadType(ps.MsgRmdir, reflect.TypeOf(ps.RmdirRequest{}))
	s.comm.RegisterPayloadType(ps.MsgRename, reflect.TypeOf(ps.RenameRequest{}))
	s.comm.RegisterPayloadType(ps.MsgSetXattr, reflect.TypeOf(ps.SetXattrRequest{}))
	s.comm.RegisterPayloadType(ps.MsgGetXattr, reflect.TypeOf(ps.GetXattrRequest{}))
	s.comm.RegisterPayloadType(ps.MsgListXattr, reflect.TypeOf(ps.ListXattrRequest{}))
	s.comm.RegisterPayloadType(ps.MsgRemoveXattr, reflect.TypeOf(ps.RemoveXattrRequest{}))
}

func payloadAs[T any](msg communication.Message) (T, error) {
	req, ok := msg.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s wants %T", ps.ErrInvalidPayloadType, msg.Type, zero)
	}
	return req, nil
}

// Central Router for all incoming messages
func (s *SimpleServer) handleMessage(ctx context.Context, msg communication.Message) (*communication.Response, error) {
	s.ls.Debug(log_service.LogEvent{
		Message:  "Handling message",
		Metadata: map[string]any{"type": msg.Type, "from": msg.From},
	})

	switch msg.Type {
	case ps.MsgLookupPath:
		req, err := payloadAs[ps.LookupPathRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		id, err := s.fs.LookupPath(ctx, req.Path)
		return s.respond(ps.LookupPathResponse{InodeID: id}, err)

	case ps.MsgGetAttr:
		req, err := payloadAs[ps.GetAttrRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		attrs, err := s.fs.Stat(ctx, req.Path)
		return s.respond(attrs, err)

	case ps.MsgReadDir:
		req, err := payloadAs[ps.ReadDirRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		entries, err := s.fs.ReadDir(ctx, req.Path)
		return s.respond(entries, err)

	case ps.MsgFsStat:
		stats, err := s.fs.GetFsStat(ctx)
		return s.respond(stats, err)

	case ps.MsgCreate:
		req, err := payloadAs[ps.CreateRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		desc, err := s.fs.Create(ctx, req.Path)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(ps.CreateResponse{Path: req.Path, Size: desc.SizeOf()}, nil)

	case ps.MsgRead:
		req, err := payloadAs[ps.ReadRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		if req.Length < 0 || req.Length > ps.MaxReadLength {
			return s.respond(nil, fmt.Errorf("%w: %d", ps.ErrReadTooLarge, req.Length))
		}
		data, err := s.fs.Read(ctx, req.Path, req.Offset, req.Length)
		if err != nil {
			return s.respond(nil, err)
		}
		return &communication.Response{Code: communication.CodeOK, Body: data}, nil

	case ps.MsgMkdir:
		req, err := payloadAs[ps.MkdirRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		attrs, err := s.fs.Mkdir(ctx, req.Path)
		return s.respond(attrs, err)

	case ps.MsgRemove:
		req, err := payloadAs[ps.RemoveRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(nil, s.fs.Remove(ctx, req.Path))

	case ps.MsgRmdir:
		req, err := payloadAs[ps.RmdirRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(nil, s.fs.Rmdir(ctx, req.Path))

	case ps.MsgRename:
		req, err := payloadAs[ps.RenameRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(nil, s.fs.Rename(ctx, req.SrcPath, req.DstPath))

	case ps.MsgSetXattr:
		req, err := payloadAs[ps.SetXattrRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(nil, s.fs.SetXattr(ctx, req.Path, req.Name, req.Value))

	case ps.MsgGetXattr:
		req, err := payloadAs[ps.GetXattrRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		value, err := s.fs.GetXattr(ctx, req.Path, req.Name)
		if err != nil {
			return s.respond(nil, err)
		}
		return &communication.Response{Code: communication.CodeOK, Body: []byte(value)}, nil

	case ps.MsgListXattr:
		req, err := payloadAs[ps.ListXattrRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		names, err := s.fs.ListXattr(ctx, req.Path)
		return s.respond(names, err)

	case ps.MsgRemoveXattr:
		req, err := payloadAs[ps.RemoveXattrRequest](msg)
		if err != nil {
			return s.respond(nil, err)
		}
		return s.respond(nil, s.fs.RemoveXattr(ctx, req.Path, req.Name))

	default:
		return s.respond(nil, fmt.Errorf("%w: %s", ps.ErrUnknownMessageType, msg.Type))
	}
}

// respond standardizes JSON responses and error codes.
func (s *SimpleServer) respond(data any, err error) (*communication.Response, error) {
	if err != nil {
		code := ps.CodeFor(err)
		if code == communication.CodeInternal {
			s.ls.Error(log_service.LogEvent{
				Message:  "Request failed",
				Metadata: map[string]any{"error": err.Error()},
			})
		}
		return &communication.Response{
			Code: code,
			Body: []byte(err.Error()),
		}, nil
	}

	if data == nil {
		return &communication.Response{Code: communication.CodeOK}, nil
	}

	bytes, marshalErr := json.Marshal(data)
	if marshalErr != nil {
		return &communication.Response{
			Code: communication.CodeInternal,
			Body: []byte("failed to marshal response: " + marshalErr.Error()),
		}, nil
	}

	return &communication.Response{
		Code: communication.CodeOK,
		Body: bytes,
	}, nil
}
