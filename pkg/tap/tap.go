// Package tap defines where a job reads its input from and writes its output
// to. A tap that can only be written is a Sink; one that can be read is a
// Source. The capabilities are separate interfaces so that a write-only tap
// cannot be handed to code expecting a Source.
package tap

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rincaro/cascading.utils/pkg/core"
)

var (
	// ErrUnsupportedSourceOperation is returned when a write-only tap is used as a source.
	ErrUnsupportedSourceOperation = errors.New("tap can't be a source")

	// ErrCollectorClosed is returned when writing to a closed collector.
	ErrCollectorClosed = errors.New("collector is closed")
)

type Tap interface {
	Path() string
}

// Collector receives the output records of one partition.
type Collector interface {
	Collect(kv core.KeyValue) error
	Close() error
}

type Sink interface {
	Tap
	Exists() (bool, error)
	MakeDirs() error
	Delete() error
	Modified() (time.Time, error)
	OpenForWrite(part int) (Collector, error)
}

type Source interface {
	Tap
	OpenForRead() ([]Line, error)
}

// AsSource returns t as a Source, or ErrUnsupportedSourceOperation if t is
// write-only.
func AsSource(t Tap) (Source, error) {
	src, ok := t.(Source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceOperation, t.Path())
	}
	return src, nil
}
