package local

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/Rincaro/cascading.utils/pkg/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
	"github.com/Rincaro/cascading.utils/pkg/tap"
)

var ErrMissingTap = errors.New("job needs both a source and a sink")

type Config struct {
	Name        string
	Source      tap.Source
	Sink        tap.Sink
	NumReducers int
	// Hash picks the partition function; nil means core.FNV32a.
	Hash       core.HashFunc
	MapFunc    core.MapFunc
	ReduceFunc core.ReduceFunc
	// Workers bounds the reduce partitions processed at once. Defaults to NumReducers.
	Workers int
}

// Stats describes one completed run.
type Stats struct {
	Lines      int
	Mapped     int
	Partitions int
	Written    int64
}

type Engine struct {
	config Config
	logger logging.Logger
}

func NewEngine(config Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{config: config, logger: logger}
}

func (e *Engine) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if e.config.Source == nil || e.config.Sink == nil {
		return stats, ErrMissingTap
	}
	if e.config.MapFunc == nil || e.config.ReduceFunc == nil {
		return stats, fmt.Errorf("job %s has no map or reduce function", e.config.Name)
	}

	lines, err := e.config.Source.OpenForRead()
	if err != nil {
		return stats, fmt.Errorf("failed to read %s: %w", e.config.Source.Path(), err)
	}
	stats.Lines = len(lines)

	mapped := e.runMap(lines)
	stats.Mapped = len(mapped)

	partitioned, err := e.runShuffle(mapped)
	if err != nil {
		return stats, err
	}
	stats.Partitions = len(partitioned)

	if err := e.config.Sink.MakeDirs(); err != nil {
		return stats, fmt.Errorf("failed to prepare %s: %w", e.config.Sink.Path(), err)
	}

	written, err := e.runReduce(ctx, partitioned)
	stats.Written = written
	if err != nil {
		return stats, err
	}

	e.logger.Info("Job finished",
		"job", e.config.Name,
		"lines", stats.Lines,
		"mapped", stats.Mapped,
		"partitions", stats.Partitions,
		"written", stats.Written,
		"sink", e.config.Sink.Path(),
	)
	return stats, nil
}

func (e *Engine) runMap(lines []tap.Line) []core.KeyValue {
	var results []core.KeyValue
	for _, line := range lines {
		kvs := e.config.MapFunc(fmt.Sprintf("%s:%d", line.Filename, line.Number), line.Text)
		results = append(results, kvs...)
	}
	return results
}

// runShuffle groups records by the partition key of their intermediate key
// and sorts every partition by key.
func (e *Engine) runShuffle(mapped []core.KeyValue) (map[int][]core.KeyValue, error) {
	partitioned := make(map[int][]core.KeyValue)
	for _, kv := range mapped {
		key, err := core.NewPartitionKeyWithHash(e.config.Hash, kv.Key, e.config.NumReducers)
		if err != nil {
			return nil, err
		}
		partitioned[key.Value()] = append(partitioned[key.Value()], kv)
	}

	for _, records := range partitioned {
		slices.SortStableFunc(records, func(left, right core.KeyValue) int {
			return cmp.Compare(left.Key, right.Key)
		})
	}

	e.logger.Debug("Shuffle complete", "records", len(mapped), "partitions", len(partitioned))
	return partitioned, nil
}

func (e *Engine) runReduce(ctx context.Context, partitioned map[int][]core.KeyValue) (int64, error) {
	workers := e.config.Workers
	if workers <= 0 {
		workers = e.config.NumReducers
	}

	var written atomic.Int64

	pool := NewPool(workers)
	for part, records := range partitioned {
		pool.Go(func() error {
			n, err := e.reducePartition(ctx, part, records)
			written.Add(n)
			if err != nil {
				return fmt.Errorf("partition %d: %w", part, err)
			}
			return nil
		})
	}
	err := pool.Wait()

	return written.Load(), err
}

func (e *Engine) reducePartition(ctx context.Context, part int, sortedPartition []core.KeyValue) (int64, error) {
	collector, err := e.config.Sink.OpenForWrite(part)
	if err != nil {
		return 0, err
	}

	var written int64
	i := 0
	for i < len(sortedPartition) {
		if err := ctx.Err(); err != nil {
			return written, errors.Join(err, collector.Close())
		}

		key := sortedPartition[i].Key
		values := []string{}

		for i < len(sortedPartition) && sortedPartition[i].Key == key {
			values = append(values, sortedPartition[i].Value)
			i++
		}

		// Streaming reduce
		if err := collector.Collect(e.config.ReduceFunc(key, values)); err != nil {
			return written, errors.Join(err, collector.Close())
		}
		written++
	}

	return written, collector.Close()
}
