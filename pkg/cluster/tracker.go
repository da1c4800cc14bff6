package cluster

// Phase is the stage a Tracker is in.
//
//	AwaitingController -> Polling -> Stable
//
// A Tracker leaves AwaitingController on the first observation taken while
// the controller is RUNNING and becomes Stable when two consecutive RUNNING
// observations report the same worker count.
type Phase int

const (
	PhaseAwaitingController Phase = iota
	PhasePolling
	PhaseStable
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingController:
		return "AwaitingController"
	case PhasePolling:
		return "Polling"
	case PhaseStable:
		return "Stable"
	default:
		return "Unknown"
	}
}

// Observation describes what a single status did to the Tracker.
type Observation struct {
	Phase Phase
	// Accepted is false when the status was discarded because the controller
	// was not running.
	Accepted bool
	// Changed is true when an accepted count differs from the previous one.
	// It is false for the first accepted observation.
	Changed  bool
	Previous int
	Current  int
}

// Tracker is the stabilization state machine behind Detector. It does no I/O
// and no waiting, so callers with their own scheduler can feed it directly.
// A Tracker is not safe for concurrent use.
type Tracker struct {
	acceptFirst bool

	phase   Phase
	hasPrev bool
	prev    int
	polls   int
	result  Status
}

// NewTracker returns a tracker in PhaseAwaitingController. With acceptFirst
// the first RUNNING observation is taken as stable, which is what a local,
// single-process cluster needs.
func NewTracker(acceptFirst bool) *Tracker {
	return &Tracker{acceptFirst: acceptFirst}
}

// Observe feeds one status into the tracker. Once stable, further
// observations are ignored.
func (t *Tracker) Observe(status Status) Observation {
	if t.phase == PhaseStable {
		return Observation{Phase: PhaseStable, Previous: t.prev, Current: t.result.WorkerCount}
	}

	t.polls++

	if status.ControllerState != ControllerRunning {
		return Observation{Phase: t.phase, Previous: t.prev}
	}

	current := status.WorkerCount
	obs := Observation{Accepted: true, Previous: t.prev, Current: current}

	if (t.hasPrev && current == t.prev) || t.acceptFirst {
		t.phase = PhaseStable
		t.prev = current
		t.result = status
		obs.Phase = PhaseStable
		return obs
	}

	obs.Changed = t.hasPrev
	t.hasPrev = true
	t.prev = current
	t.phase = PhasePolling
	obs.Phase = PhasePolling
	return obs
}

func (t *Tracker) Phase() Phase {
	return t.phase
}

// Polls is the number of observations fed before the tracker became stable.
func (t *Tracker) Polls() int {
	return t.polls
}

// Result returns the accepted status once the tracker is stable.
func (t *Tracker) Result() (Status, bool) {
	return t.result, t.phase == PhaseStable
}
