package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Rincaro/cascading.utils/internal/metrics"
	"github.com/Rincaro/cascading.utils/internal/planner/service"
	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/pkg/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

const metricsPushTimeout = 5 * time.Second

type app struct {
	configPath string
	cfg        *config.PlannerConfig
	logger     logging.Logger
	registry   *prometheus.Registry
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, registry: prometheus.NewRegistry()}

	root := &cobra.Command{
		Use:           "planner",
		Short:         "Size jobs from the cluster membership",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPlanner(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logging.NewLogger(os.Stderr)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file")

	root.AddCommand(a.detectCmd(), a.jobconfCmd(), partitionCmd(out))
	return root
}

// planner builds the planner for the loaded configuration. The returned
// cleanup closes the status provider and pushes the detector metrics.
func (a *app) planner(ctx context.Context) (*service.Planner, func(), error) {
	provider, closeProvider, err := newStatusProvider(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	p := service.NewPlanner(provider, a.cfg.Detector, a.cfg.Job, metrics.NewDetector(a.registry), a.logger)
	cleanup := func() {
		closeProvider()
		a.pushMetrics()
	}
	return p, cleanup, nil
}

func (a *app) pushMetrics() {
	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()
	if err := metrics.Push(ctx, a.cfg.Metrics.PushURL, a.cfg.Metrics.Job, a.registry); err != nil {
		a.logger.Warn("Failed to push metrics", "error", err)
	}
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Wait until the worker count is stable and print the cluster status",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cleanup, err := a.planner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := p.Detect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "state=%s workers=%d reduce_slots=%d\n",
				status.ControllerState, status.WorkerCount, status.MaxReduceTasks)
			return nil
		},
	}
}

func (a *app) jobconfCmd() *cobra.Command {
	var (
		tracker   string
		stackSize int
		debugging bool
	)
	cmd := &cobra.Command{
		Use:   "jobconf",
		Short: "Print the default job configuration for the tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("tracker") {
				a.cfg.Job.Tracker = tracker
			}
			if cmd.Flags().Changed("stack-size") {
				a.cfg.Job.StackSizeKB = stackSize
			}
			if cmd.Flags().Changed("debug") {
				a.cfg.Job.Debug = debugging
			}

			p, cleanup, err := a.planner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			conf, err := p.Plan(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "map.tasks=%d\n", conf.NumMapTasks)
			fmt.Fprintf(a.out, "reduce.tasks=%d\n", conf.NumReduceTasks)
			for _, key := range conf.PropertyKeys() {
				fmt.Fprintf(a.out, "%s=%s\n", key, conf.Properties[key])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tracker, "tracker", "", "job tracker; \"local\" runs in process")
	cmd.Flags().IntVar(&stackSize, "stack-size", 0, "task stack size in KB")
	cmd.Flags().BoolVar(&debugging, "debug", false, "framework logs at debug, job logs at trace")
	return cmd
}

func partitionCmd(out io.Writer) *cobra.Command {
	var (
		partitions int
		hashName   string
	)
	cmd := &cobra.Command{
		Use:   "partition KEY...",
		Short: "Print the partition each key is routed to",
		Args:  cobra.MinimumNArgs(1),
		// Partitioning needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := core.ParseHash(hashName)
			if err != nil {
				return err
			}
			for _, arg := range args {
				key, err := core.NewPartitionKeyWithHash(hash, arg, partitions)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%d\n", arg, key.Value())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&partitions, "partitions", "n", 1, "number of partitions")
	cmd.Flags().StringVar(&hashName, "hash", "fnv", "partition hash: "+strings.Join([]string{"fnv", "xxh3"}, " or "))
	return cmd
}
