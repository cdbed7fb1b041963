package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/AnishMulay/sizefs/internal/config"
	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/AnishMulay/sizefs/servers/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "ERROR"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func digest(data string) string {
	sum := blake3.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func TestCatRange(t *testing.T) {
	out, err := execute(t, "cat", "/ones/100K", "--offset", "10", "--length", "5")
	require.NoError(t, err)
	assert.Equal(t, "11111", out)
}

func TestCatToEnd(t *testing.T) {
	out, err := execute(t, "cat", "/zeros/4M+1B", "--offset", "4194300")
	require.NoError(t, err)
	assert.Equal(t, "00000", out)
}

func TestCatIsThrottled(t *testing.T) {
	start := time.Now()
	out, err := execute(t, "cat", "/ones/100K", "--length", "300", "--rate", "100")
	require.NoError(t, err)
	assert.Len(t, out, 300)
	// One burst of 100 bytes, then two more at 100 bytes per second.
	assert.GreaterOrEqual(t, time.Since(start), 1500*time.Millisecond)
}

func TestCatErrors(t *testing.T) {
	_, err := execute(t, "cat", "/zeros")
	assert.Error(t, err)

	_, err = execute(t, "cat", "/zeros/4M", "--rate", "-1")
	assert.Error(t, err)

	_, err = execute(t, "cat")
	assert.Error(t, err)
}

func TestSumKeepsArgumentOrder(t *testing.T) {
	out, err := execute(t, "sum", "/zeros/100K", "/ones/100K", "--jobs", "2")
	require.NoError(t, err)

	want := digest(strings.Repeat("0", 100<<10)) + "  /zeros/100K\n" +
		digest(strings.Repeat("1", 100<<10)) + "  /ones/100K\n"
	assert.Equal(t, want, out)
}

func TestSumMissingFile(t *testing.T) {
	_, err := execute(t, "sum", "/zeros/100K", "/nowhere/1B")
	assert.Error(t, err)
}

func TestCatRemote(t *testing.T) {
	for _, communicator := range []string{config.CommunicatorGRPC, config.CommunicatorHTTP} {
		t.Run(communicator, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Log.Level = log_service.ErrorLevel
			cfg.Remote.Listen = "127.0.0.1:0"
			cfg.Remote.Communicator = communicator
			srv, err := remote.Build(remote.Options{Config: cfg})
			require.NoError(t, err)
			require.NoError(t, srv.Start())
			t.Cleanup(func() { _ = srv.Stop() })

			out, err := execute(t, "--communicator", communicator, "cat", "/ones/4M-1B",
				"--remote", srv.Address(), "--offset", "4194300")
			require.NoError(t, err)
			assert.Equal(t, "111", out)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sizefs "))
}

func TestConfigFlag(t *testing.T) {
	_, err := execute(t, "--communicator", "carrier-pigeon", "cat", "/zeros/1B")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
