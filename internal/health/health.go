// Package health aggregates the readiness of the subsystems a check depends on.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds a single checker when the registry has no other limit.
const DefaultTimeout = 3 * time.Second

// Status represents the health of a single subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker reports the health of one subsystem. It should honor ctx.
type Checker func(ctx context.Context) Status

// Registry holds named checkers. Registering a name twice replaces the
// earlier checker while keeping its position.
type Registry struct {
	mu       sync.RWMutex
	timeout  time.Duration
	order    []string
	checkers map[string]Checker
}

// NewRegistry creates a registry whose checkers each get DefaultTimeout.
func NewRegistry() *Registry {
	return &Registry{timeout: DefaultTimeout, checkers: make(map[string]Checker)}
}

// WithTimeout sets the per-checker deadline.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds or replaces a named checker.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checkers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.checkers[name] = check
}

// CheckAll runs every checker concurrently and returns the aggregate result
// plus one status per checker in registration order. A checker that misses
// its deadline or panics is reported unhealthy.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	names := append([]string(nil), r.order...)
	checks := make([]Checker, len(names))
	for i, n := range names {
		checks[i] = r.checkers[n]
	}
	timeout := r.timeout
	r.mu.RUnlock()

	statuses = make([]Status, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = run(ctx, names[i], checks[i], timeout)
		}(i)
	}
	wg.Wait()

	healthy = true
	for _, st := range statuses {
		if !st.Healthy {
			healthy = false
		}
	}
	return healthy, statuses
}

func run(ctx context.Context, name string, check Checker, timeout time.Duration) Status {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan Status, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Status{Name: name, Healthy: false, Detail: fmt.Sprintf("checker panicked: %v", p)}
			}
		}()
		st := check(ctx)
		if st.Name == "" {
			st.Name = name
		}
		done <- st
	}()

	select {
	case st := <-done:
		return st
	case <-ctx.Done():
		return Status{Name: name, Healthy: false, Detail: "timed out"}
	}
}
