// Package jobconf builds the default configuration of a job: task counts
// sized from the cluster, speculative execution off and the per-task stack
// size.
package jobconf

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// DefaultStackSizeKB is the per-task stack size used when none is given.
	DefaultStackSizeKB = 512

	// LocalTracker is the tracker address of single-process execution.
	LocalTracker = "local"

	PropertyTracker          = "job.tracker"
	PropertyChildOpts        = "job.child.opts"
	PropertyChildUlimitStack = "job.child.ulimit.stack"
)

var (
	ErrInvalidStackSize = errors.New("stack size must be greater than zero")
	ErrNilReducerSource = errors.New("reducer source is required for a non-local tracker")
	ErrInvalidReducers  = errors.New("cluster reported no reduce slots")
)

// ReducerSource reports how many reduce tasks the cluster can run in parallel.
// *cluster.Detector satisfies it.
type ReducerSource interface {
	StableReduceSlots(ctx context.Context) (int, error)
}

type JobConf struct {
	Tracker           string
	NumMapTasks       int
	NumReduceTasks    int
	MapSpeculative    bool
	ReduceSpeculative bool
	StackSizeKB       int
	ChildOpts         string
	ChildUlimitStack  string
	Properties        map[string]string
}

type options struct {
	tracker     string
	stackSizeKB int
}

type Option func(*options)

func WithTracker(tracker string) Option {
	return func(o *options) { o.tracker = tracker }
}

func WithStackSizeKB(kb int) Option {
	return func(o *options) { o.stackSizeKB = kb }
}

// New returns the default configuration for the given tracker. A local
// tracker gets exactly one map and one reduce task so that code depending on
// the reducer count behaves. Otherwise the reduce task count is the cluster's
// reduce slot count once its worker membership has settled, which may block.
func New(ctx context.Context, source ReducerSource, opts ...Option) (*JobConf, error) {
	o := options{tracker: LocalTracker, stackSizeKB: DefaultStackSizeKB}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stackSizeKB <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStackSize, o.stackSizeKB)
	}

	conf := &JobConf{
		Tracker:    o.tracker,
		Properties: make(map[string]string),
	}

	if IsLocal(o.tracker) {
		conf.NumMapTasks = 1
		conf.NumReduceTasks = 1
	} else {
		if source == nil {
			return nil, ErrNilReducerSource
		}
		reducers, err := source.StableReduceSlots(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to size reduce tasks: %w", err)
		}
		if reducers <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidReducers, reducers)
		}
		conf.NumReduceTasks = reducers
	}

	conf.MapSpeculative = false
	conf.ReduceSpeculative = false
	conf.SetStackSize(o.stackSizeKB)
	conf.Properties[PropertyTracker] = conf.Tracker

	return conf, nil
}

// SetStackSize updates the stack size and the child options derived from it.
func (c *JobConf) SetStackSize(kb int) {
	c.StackSizeKB = kb
	c.ChildOpts = ChildOptsFor(kb)
	c.ChildUlimitStack = fmt.Sprintf("%d", kb)
	c.Properties[PropertyChildOpts] = c.ChildOpts
	c.Properties[PropertyChildUlimitStack] = c.ChildUlimitStack
}

func (c *JobConf) IsLocal() bool {
	return IsLocal(c.Tracker)
}

// Merge copies props into the configuration, overwriting existing keys.
func (c *JobConf) Merge(props map[string]string) {
	maps.Copy(c.Properties, props)
}

// PropertyKeys returns the property names in sorted order.
func (c *JobConf) PropertyKeys() []string {
	return slices.Sorted(maps.Keys(c.Properties))
}

// ChildOptsFor renders the task command-line flags for a stack size. The
// ulimit form of the same size has no unit suffix.
func ChildOptsFor(stackSizeKB int) string {
	return fmt.Sprintf("-server -Xmx512m -Xss%dk", stackSizeKB)
}

func IsLocal(tracker string) bool {
	return strings.EqualFold(strings.TrimSpace(tracker), LocalTracker)
}
