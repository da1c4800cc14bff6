package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Rincaro/cascading.utils/pkg/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
	"github.com/Rincaro/cascading.utils/pkg/tap"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.txt"), []byte("alpha beta alpha\ngamma\n"), 0o644))
	return filepath.Join(dir, "*.txt")
}

func TestRun_DiscardLogsAndPushesCount(t *testing.T) {
	var (
		mu     sync.Mutex
		path   string
		pushed string
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, pushed = r.URL.Path, string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	var logs lockedBuffer
	err := run(t.Context(), options{
		input:          writeInput(t),
		reducers:       2,
		jobName:        "wordcount",
		discard:        true,
		hashName:       "fnv",
		metricsPushURL: gateway.URL,
	}, prometheus.NewRegistry(), logging.New(&logs, "json", slog.LevelInfo))
	require.NoError(t, err)

	require.Contains(t, logs.String(), `"msg":"Discarded job output"`)
	require.Contains(t, logs.String(), `"records":3`)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/metrics/job/cascading_local_wordcount", path)
	require.Contains(t, pushed, "cascading_tap_discarded_records_total")
}

func TestRun_WritesOutput(t *testing.T) {
	out := t.TempDir()
	err := run(t.Context(), options{
		input:    writeInput(t),
		output:   out,
		reducers: 1,
		jobName:  "wordcount",
		hashName: "xxh3",
	}, prometheus.NewRegistry(), logging.NewNop())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, tap.PartFile(0)))
	require.NoError(t, err)
}

func TestRun_InvalidOptions(t *testing.T) {
	input := writeInput(t)

	tests := []struct {
		name string
		o    options
	}{
		{name: "no input", o: options{discard: true, reducers: 1, jobName: "wordcount"}},
		{name: "no output", o: options{input: input, reducers: 1, jobName: "wordcount"}},
		{name: "no reducers", o: options{input: input, discard: true, jobName: "wordcount"}},
		{name: "unknown hash", o: options{input: input, discard: true, reducers: 1, jobName: "wordcount", hashName: "md5"}},
		{name: "unknown job", o: options{input: input, discard: true, reducers: 1, jobName: "grep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t.Context(), tt.o, prometheus.NewRegistry(), logging.NewNop())
			require.Error(t, err)
		})
	}

	err := run(t.Context(), options{input: input, discard: true, jobName: "wordcount"}, prometheus.NewRegistry(), logging.NewNop())
	require.ErrorIs(t, err, core.ErrInvalidPartitionCount)
}
