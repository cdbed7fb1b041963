// Package zaplog implements log_service.LogService on top of zap.
package zaplog

import (
	"fmt"
	"sort"

	"github.com/AnishMulay/sizefs/internal/log_service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogService struct {
	nodeID string
	log    *zap.Logger
	level  zap.AtomicLevel
}

// New builds a console logger writing to stderr with ISO8601 timestamps.
func New(nodeID string, minLogLevel string) (*ZapLogService, error) {
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(toZapLevel(minLogLevel))
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.OutputPaths = []string{"stderr"}
	c.Sampling = nil

	l, err := c.Build(
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return &ZapLogService{nodeID: nodeID, log: l, level: c.Level}, nil
}

// NewWithLogger wraps an existing zap logger, e.g. one built by zaptest.
func NewWithLogger(nodeID string, l *zap.Logger) *ZapLogService {
	return &ZapLogService{nodeID: nodeID, log: l, level: zap.NewAtomicLevelAt(zap.DebugLevel)}
}

func (z *ZapLogService) SetMinLogLevel(level string) {
	z.level.SetLevel(toZapLevel(level))
}

func (z *ZapLogService) Sync() error {
	return z.log.Sync()
}

func toZapLevel(level string) zapcore.Level {
	switch log_service.GetLevelValue(level) {
	case log_service.DebugLevelValue:
		return zap.DebugLevel
	case log_service.WarnLevelValue:
		return zap.WarnLevel
	case log_service.ErrorLevelValue:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func (z *ZapLogService) fields(event log_service.LogEvent) []zap.Field {
	nodeID := event.NodeID
	if nodeID == "" {
		nodeID = z.nodeID
	}

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]zap.Field, 0, len(keys)+1)
	res = append(res, zap.String("node", nodeID))
	for _, k := range keys {
		res = append(res, zap.Any(k, event.Metadata[k]))
	}
	return res
}

func (z *ZapLogService) Debug(event log_service.LogEvent) {
	z.log.Debug(event.Message, z.fields(event)...)
}

func (z *ZapLogService) Info(event log_service.LogEvent) {
	z.log.Info(event.Message, z.fields(event)...)
}

func (z *ZapLogService) Warn(event log_service.LogEvent) {
	z.log.Warn(event.Message, z.fields(event)...)
}

func (z *ZapLogService) Error(event log_service.LogEvent) {
	z.log.Error(event.Message, z.fields(event)...)
}

var _ log_service.LogService = (*ZapLogService)(nil)
