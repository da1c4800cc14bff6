package jobconf

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rincaro/cascading.utils/pkg/logging"
)

type mockReducerSource struct {
	mu    sync.Mutex
	slots int
	err   error
	calls int
}

func (m *mockReducerSource) StableReduceSlots(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.slots, m.err
}

func TestNew_Local(t *testing.T) {
	source := &mockReducerSource{slots: 40}

	for _, tracker := range []string{"local", "LOCAL", " Local "} {
		conf, err := New(context.Background(), source, WithTracker(tracker))
		require.NoError(t, err)
		require.True(t, conf.IsLocal())
		require.Equal(t, 1, conf.NumMapTasks)
		require.Equal(t, 1, conf.NumReduceTasks)
	}
	require.Equal(t, 0, source.calls)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	conf, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, LocalTracker, conf.Tracker)
	require.Equal(t, LocalTracker, conf.Properties[PropertyTracker])
}

func TestNew_ClusterSizesReducers(t *testing.T) {
	source := &mockReducerSource{slots: 24}

	conf, err := New(context.Background(), source, WithTracker("coordinator:9090"))

	require.NoError(t, err)
	require.False(t, conf.IsLocal())
	require.Equal(t, 24, conf.NumReduceTasks)
	require.Equal(t, 0, conf.NumMapTasks)
	require.False(t, conf.MapSpeculative)
	require.False(t, conf.ReduceSpeculative)
	require.Equal(t, 1, source.calls)
}

func TestNew_ClusterErrors(t *testing.T) {
	unreachable := errors.New("connection refused")

	tests := []struct {
		name    string
		source  ReducerSource
		wantErr error
	}{
		{name: "nil source", source: nil, wantErr: ErrNilReducerSource},
		{name: "source failure", source: &mockReducerSource{err: unreachable}, wantErr: unreachable},
		{name: "no slots", source: &mockReducerSource{slots: 0}, wantErr: ErrInvalidReducers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.source, WithTracker("cluster"))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_StackSize(t *testing.T) {
	conf, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, DefaultStackSizeKB, conf.StackSizeKB)
	require.Equal(t, "-server -Xmx512m -Xss512k", conf.ChildOpts)
	require.Equal(t, "512", conf.ChildUlimitStack)

	conf, err = New(context.Background(), nil, WithStackSizeKB(2048))
	require.NoError(t, err)
	require.Equal(t, "-server -Xmx512m -Xss2048k", conf.Properties[PropertyChildOpts])
	require.Equal(t, "2048", conf.Properties[PropertyChildUlimitStack])

	_, err = New(context.Background(), nil, WithStackSizeKB(0))
	require.ErrorIs(t, err, ErrInvalidStackSize)
}

func TestJobConf_MergeAndKeys(t *testing.T) {
	conf, err := New(context.Background(), nil)
	require.NoError(t, err)

	conf.Merge(DefaultProperties(true))
	conf.Merge(map[string]string{PropertyTracker: "override"})

	require.Equal(t, "override", conf.Properties[PropertyTracker])
	require.Equal(t, []string{
		PropertyChildOpts,
		PropertyChildUlimitStack,
		PropertyTracker,
		PropertyLoggingLevels,
	}, conf.PropertyKeys())
}

func TestLoggingLevels(t *testing.T) {
	require.Equal(t, "framework=DEBUG,app=TRACE", DefaultProperties(true)[PropertyLoggingLevels])
	require.Equal(t, "framework=INFO,app=INFO", DefaultProperties(false)[PropertyLoggingLevels])
	require.Equal(t, "framework=WARN,app=ERROR", LoggingLevels(slog.LevelWarn, slog.LevelError))
}

func TestParseLoggingLevels(t *testing.T) {
	levels, err := ParseLoggingLevels("framework=DEBUG, app=TRACE")
	require.NoError(t, err)
	require.Equal(t, map[string]slog.Level{
		FrameworkLogger: slog.LevelDebug,
		AppLogger:       logging.LevelTrace,
	}, levels)

	levels, err = ParseLoggingLevels(LoggingLevels(slog.LevelInfo, slog.LevelWarn))
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, levels[AppLogger])

	_, err = ParseLoggingLevels("framework")
	require.Error(t, err)

	_, err = ParseLoggingLevels("app=LOUD")
	require.Error(t, err)
}
