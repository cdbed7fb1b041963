// Package stack wires the services every SizeFS flavor shares: logging,
// metrics, content generation, metadata and the file service.
package stack

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/AnishMulay/sizefs/internal/config"
	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/content_service/cached"
	"github.com/AnishMulay/sizefs/internal/content_service/generator"
	pfs "github.com/AnishMulay/sizefs/internal/file_service"
	fileservice "github.com/AnishMulay/sizefs/internal/file_service/simple"
	logservice "github.com/AnishMulay/sizefs/internal/log_service"
	locallog "github.com/AnishMulay/sizefs/internal/log_service/localdisc"
	"github.com/AnishMulay/sizefs/internal/log_service/zaplog"
	metadataservice "github.com/AnishMulay/sizefs/internal/metadata_service/inmemory"
	"github.com/AnishMulay/sizefs/internal/metrics"
)

type Stack struct {
	Config  *config.Config
	Logs    logservice.LogService
	Metrics *metrics.Metrics
	Content cs.ContentService
	Files   pfs.FileService

	closers []func() error
}

// NewLogService builds the configured log backend and the function that
// flushes or closes it.
func NewLogService(cfg config.LogConfig, nodeID string) (logservice.LogService, func() error, error) {
	switch cfg.Backend {
	case config.LogBackendLocalDisc:
		ls, err := locallog.NewLocalDiscLogService(filepath.Clean(cfg.Dir), nodeID, cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		return ls, ls.Close, nil
	case config.LogBackendZap, "":
		ls, err := zaplog.New(nodeID, cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		// Sync on stderr fails with EINVAL on some platforms.
		return ls, func() error { _ = ls.Sync(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown log backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// Build wires a stack from cfg. Close it when done.
func Build(cfg *config.Config) (*Stack, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Logging
	ls, closeLogs, err := NewLogService(cfg.Log, cfg.NodeID)
	if err != nil {
		return nil, err
	}
	return BuildWithLogger(cfg, ls, closeLogs)
}

// BuildWithLogger is Build with a caller supplied log service. closeLogs
// may be nil.
func BuildWithLogger(cfg *config.Config, ls logservice.LogService, closeLogs func() error) (*Stack, error) {
	s := &Stack{Config: cfg, Logs: ls}
	if closeLogs != nil {
		s.closers = append(s.closers, closeLogs)
	}

	// 2. Metrics
	s.Metrics = metrics.New()

	// 3. Content, optionally behind the stable plan cache
	var content cs.ContentService = generator.NewGenerator(s.Metrics.CountWarnings(ls), nil)
	if cfg.Content.StableContentCache > 0 {
		stable, err := cached.NewCachedContentService(content, cfg.Content.StableContentCache)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		content = stable
	}
	s.Content = content

	// 4. Metadata
	ms := metadataservice.NewInMemoryMetadataService(ls, metadataservice.Config{
		DefaultMaxRandom: cfg.Content.DefaultMaxRandom,
		Directories:      cfg.MetadataDirectories(),
		SkipPresets:      cfg.Content.SkipPresets,
	})

	// 5. File service
	s.Files = fileservice.NewSimpleFileService(ms, content, ls, s.Metrics)
	return s, nil
}

func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
