package cluster

// Metrics receives detector events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// PollCompleted is called after every provider call. state is only
	// meaningful when err is nil.
	PollCompleted(state ControllerState, err error)
	// WorkerCountChanged is called for every unstable transition.
	WorkerCountChanged(from, to int)
	// Stabilized is called once per successful detection.
	Stabilized(status Status, polls int)
}

// NopMetrics discards all events.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) PollCompleted(ControllerState, error) {}
func (NopMetrics) WorkerCountChanged(int, int)          {}
func (NopMetrics) Stabilized(Status, int)               {}
