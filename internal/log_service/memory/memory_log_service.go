// Package memory keeps log events in memory so callers can inspect them.
package memory

import (
	"sync"

	"github.com/AnishMulay/sizefs/internal/log_service"
)

type Entry struct {
	Level string
	Event log_service.LogEvent
}

type MemoryLogService struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *MemoryLogService {
	return &MemoryLogService{}
}

func (m *MemoryLogService) record(level string, event log_service.LogEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Event: event})
}

// Entries returns a copy of everything logged so far.
func (m *MemoryLogService) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Count returns how many events were logged at level with the given message.
func (m *MemoryLogService) Count(level, message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Level == level && e.Event.Message == message {
			n++
		}
	}
	return n
}

func (m *MemoryLogService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

func (m *MemoryLogService) Debug(event log_service.LogEvent) {
	m.record(log_service.DebugLevel, event)
}

func (m *MemoryLogService) Info(event log_service.LogEvent) {
	m.record(log_service.InfoLevel, event)
}

func (m *MemoryLogService) Warn(event log_service.LogEvent) {
	m.record(log_service.WarnLevel, event)
}

func (m *MemoryLogService) Error(event log_service.LogEvent) {
	m.record(log_service.ErrorLevel, event)
}

var _ log_service.LogService = (*MemoryLogService)(nil)
