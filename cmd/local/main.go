package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Rincaro/cascading.utils/internal/metrics"
	"github.com/Rincaro/cascading.utils/pkg/core"
	"github.com/Rincaro/cascading.utils/pkg/jobconf"
	"github.com/Rincaro/cascading.utils/pkg/jobs"
	"github.com/Rincaro/cascading.utils/pkg/local"
	"github.com/Rincaro/cascading.utils/pkg/logging"
	"github.com/Rincaro/cascading.utils/pkg/tap"

	_ "github.com/Rincaro/cascading.utils/examples/domains"
	_ "github.com/Rincaro/cascading.utils/examples/wordcount"
)

const metricsPushTimeout = 5 * time.Second

type options struct {
	input          string
	output         string
	reducers       int
	jobName        string
	discard        bool
	hashName       string
	metricsPushURL string
}

func main() {
	var (
		o         options
		debugging bool
		logFormat string
	)
	flag.StringVar(&o.input, "input", "", "input files glob pattern")
	flag.StringVar(&o.output, "output", "", "output directory")
	flag.IntVar(&o.reducers, "reducers", 4, "number of reducers")
	flag.StringVar(&o.jobName, "job", "", "job to run (e.g., wordcount, domains)")
	flag.BoolVar(&o.discard, "discard", false, "drop the output instead of writing it")
	flag.StringVar(&o.hashName, "hash", "fnv", "partition hash: fnv or xxh3")
	flag.StringVar(&o.metricsPushURL, "metrics-push-url", "", "Pushgateway URL for the job metrics; empty disables pushing")
	flag.BoolVar(&debugging, "debug", false, "framework logs at debug, job logs at trace")
	flag.StringVar(&logFormat, "log-format", "json", "log format: json or text")
	flag.Parse()

	levels, err := jobconf.ParseLoggingLevels(jobconf.DefaultProperties(debugging)[jobconf.PropertyLoggingLevels])
	if err != nil {
		levels = map[string]slog.Level{}
	}
	logger := logging.New(os.Stderr, logFormat, levels[jobconf.FrameworkLogger])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, prometheus.NewRegistry(), logger); err != nil {
		logger.Fatal("Job failed", "job", o.jobName, "error", err)
	}
}

// run executes one job and pushes its metrics, also when the job fails.
func run(ctx context.Context, o options, reg *prometheus.Registry, logger logging.Logger) error {
	if o.input == "" {
		return errors.New("input pattern must be specified using the -input flag")
	}
	if o.output == "" && !o.discard {
		return errors.New("output directory must be specified using the -output flag")
	}
	if o.reducers <= 0 {
		return fmt.Errorf("-reducers %d: %w", o.reducers, core.ErrInvalidPartitionCount)
	}

	hash, err := core.ParseHash(o.hashName)
	if err != nil {
		return err
	}
	job, err := jobs.Get(o.jobName)
	if err != nil {
		logger.Error("Unknown job", "job", o.jobName, "available", jobs.List())
		return err
	}

	var (
		sink    tap.Sink
		discard *tap.Discard
	)
	if o.discard {
		discard = tap.NewDiscard(tap.WithRecordCounter(metrics.NewDiscardedRecords(reg)))
		sink = discard
	} else {
		sink = tap.NewDirSink(o.output)
	}

	engine := local.NewEngine(local.Config{
		Name:        o.jobName,
		Source:      tap.NewGlobSource(o.input),
		Sink:        sink,
		NumReducers: o.reducers,
		Hash:        hash,
		MapFunc:     job.Map,
		ReduceFunc:  job.Reduce,
	}, logger)

	logger.Info("Starting job",
		"job", o.jobName,
		"input", o.input,
		"sink", sink.Path(),
		"reducers", o.reducers,
		"hash", o.hashName,
	)

	_, runErr := engine.Run(ctx)
	if discard != nil {
		logger.Info("Discarded job output", "job", o.jobName, "records", discard.Discarded())
	}

	pushCtx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()
	if err := metrics.Push(pushCtx, o.metricsPushURL, "cascading_local_"+o.jobName, reg); err != nil {
		logger.Warn("Failed to push metrics", "error", err)
	}
	return runErr
}
