package tap

import (
	"sync/atomic"
	"time"

	"github.com/Rincaro/cascading.utils/pkg/core"
)

// DiscardPath is the path every Discard sink reports.
const DiscardPath = "Discard"

// RecordCounter is satisfied by prometheus.Counter.
type RecordCounter interface {
	Add(float64)
}

// Discard is a Sink that accepts and drops every record. It is used to run a
// job for its cost alone. Discard does not implement Source.
type Discard struct {
	discarded atomic.Int64
	counter   RecordCounter
}

var _ Sink = (*Discard)(nil)

type DiscardOption func(*Discard)

// WithRecordCounter adds every dropped record to c.
func WithRecordCounter(c RecordCounter) DiscardOption {
	return func(d *Discard) { d.counter = c }
}

func NewDiscard(opts ...DiscardOption) *Discard {
	d := &Discard{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Discard) Path() string { return DiscardPath }

// Exists always reports true.
func (d *Discard) Exists() (bool, error) { return true, nil }

func (d *Discard) MakeDirs() error { return nil }

func (d *Discard) Delete() error { return nil }

func (d *Discard) Modified() (time.Time, error) { return time.Time{}, nil }

func (d *Discard) OpenForWrite(part int) (Collector, error) {
	return &discardCollector{sink: d}, nil
}

// Discarded is the number of records dropped so far across all collectors.
func (d *Discard) Discarded() int64 {
	return d.discarded.Load()
}

type discardCollector struct {
	sink *Discard
}

func (c *discardCollector) Collect(core.KeyValue) error {
	c.sink.discarded.Add(1)
	if c.sink.counter != nil {
		c.sink.counter.Add(1)
	}
	return nil
}

func (c *discardCollector) Close() error { return nil }
