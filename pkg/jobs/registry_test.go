package jobs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rincaro/cascading.utils/pkg/core"
)

func identity(key, value string) []core.KeyValue { return []core.KeyValue{{Key: key, Value: value}} }

func first(key string, values []string) core.KeyValue { return core.KeyValue{Key: key, Value: values[0]} }

func TestRegistry(t *testing.T) {
	require.NoError(t, Register("test-b", Job{Map: identity, Reduce: first}))
	require.NoError(t, Register("test-a", Job{Map: identity, Reduce: first}))

	require.Error(t, Register("test-a", Job{Map: identity, Reduce: first}))
	require.Error(t, Register("test-c", Job{Map: identity}))

	job, err := Get("test-a")
	require.NoError(t, err)
	require.NotNil(t, job.Map)

	_, err = Get("missing")
	require.Error(t, err)

	require.Equal(t, []string{"test-a", "test-b"}, List())
}

func TestMustRegister(t *testing.T) {
	require.NotPanics(t, func() { MustRegister("test-must", Job{Map: identity, Reduce: first}) })
	require.Panics(t, func() { MustRegister("test-must", Job{Map: identity, Reduce: first}) })
	require.Panics(t, func() { MustRegister("test-must-incomplete", Job{Reduce: first}) })

	_, err := Get("test-must-incomplete")
	require.Error(t, err)
}
