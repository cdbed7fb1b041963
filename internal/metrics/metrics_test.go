package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/AnishMulay/sizefs/internal/log_service/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveOp("read", time.Now(), nil)
	m.ObserveOp("read", time.Now(), nil)
	m.ObserveOp("create", time.Now(), errors.New("boom"))
	m.AddBytesRead(4096)
	m.AddBytesRead(-1)
	m.IncFilesCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("read", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create", "error")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.bytesRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesCreated))
}

func TestMetrics_CountWarnings(t *testing.T) {
	m := New()
	inner := memory.New()
	ls := m.CountWarnings(inner)

	ls.Warn(log_service.LogEvent{Message: cs.SizeInsufficientWarning})
	ls.Warn(log_service.LogEvent{Message: "something else"})
	ls.Info(log_service.LogEvent{Message: cs.SizeInsufficientWarning})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sizeWarnings))
	assert.Len(t, inner.Entries(), 3)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncFilesCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sizefs_metadata_files_created_total 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveOp("read", time.Now(), nil)
		m.AddBytesRead(10)
		m.IncFilesCreated()
		assert.Nil(t, m.Registry())
	})

	inner := memory.New()
	assert.Equal(t, log_service.LogService(inner), m.CountWarnings(inner))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerServesMetrics(t *testing.T) {
	m := New()
	m.IncFilesCreated()

	s := NewServer("127.0.0.1:0", m, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	resp, err := http.Get("http://" + s.Address() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sizefs_metadata_files_created_total 1")
}
