package jobs

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Rincaro/cascading.utils/pkg/core"
)

type Job struct {
	Description string
	Map         core.MapFunc
	Reduce      core.ReduceFunc
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Job)
)

func Register(name string, job Job) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		return fmt.Errorf("job already registered: %s", name)
	}
	if job.Map == nil || job.Reduce == nil {
		return fmt.Errorf("job %s needs both map and reduce functions", name)
	}
	registry[name] = job
	return nil
}

// MustRegister is Register for package init functions. It panics on a
// duplicate name or an incomplete job.
func MustRegister(name string, job Job) {
	if err := Register(name, job); err != nil {
		panic(err)
	}
}

func Get(name string) (Job, error) {
	mu.RLock()
	defer mu.RUnlock()

	job, exists := registry[name]
	if !exists {
		return Job{}, fmt.Errorf("job not found: %s", name)
	}
	return job, nil
}

// List returns the registered job names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
