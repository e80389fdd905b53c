package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-io/internal/binding"
)

// Logger defines the logging interface used by the Coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type entry struct {
	dev     Device
	state   State
	err     error
	postErr error
}

// Coordinator brings devices up in batches.
//
// Activate runs two passes over the pending list. The first pre-activates
// every device, parents before children, and adds each success to the
// registry. The second runs post-activation for every Ready device. No
// post-activation step starts before the first pass has finished.
//
// Thread Safety:
//   - Add, State and OnStateChange are safe for concurrent use.
//   - Activate calls are serialised.
type Coordinator struct {
	env    Env
	logger Logger

	activateMu sync.Mutex

	mu        sync.RWMutex
	pending   []Device
	entries   map[string]*entry
	listeners []func(key string, s State)
}

// NewCoordinator creates a coordinator. A nil logger discards output.
func NewCoordinator(env Env, logger Logger) *Coordinator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator{
		env:     env,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Add queues d for the next Activate.
// Returns ErrDuplicateDevice if a device with the same key was added before.
func (c *Coordinator) Add(d Device) error {
	k := strings.ToLower(d.Key())

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.entries[k]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, d.Key())
	}
	c.entries[k] = &entry{dev: d, state: Constructed}
	c.pending = append(c.pending, d)
	return nil
}

// OnStateChange registers fn to be told about every state transition.
func (c *Coordinator) OnStateChange(fn func(key string, s State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the state of a device previously added.
func (c *Coordinator) State(key string) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[strings.ToLower(key)]
	if !ok {
		return Constructed, false
	}
	return e.state, true
}

// Err returns the error that left a device unbound, if any.
func (c *Coordinator) Err(key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[strings.ToLower(key)]; ok {
		return e.err
	}
	return nil
}

// Activate runs one bring-up batch over every device added since the last
// call. Per-device failures are recorded in the report and never abort the
// batch; only context cancellation does.
func (c *Coordinator) Activate(ctx context.Context) (*Report, error) {
	c.activateMu.Lock()
	defer c.activateMu.Unlock()

	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	report := &Report{
		BatchID: uuid.NewString(),
		Started: time.Now().UTC(),
	}
	log := c.logger
	log.Info("bring-up started", "batch", report.BatchID, "devices", len(batch))

	ordered, cyclic := order(batch)
	if len(cyclic) > 0 {
		log.Warn("device parent cycle, activating in file order", "batch", report.BatchID, "devices", cyclic)
	}

	// Pass 1: pre-activation.
	for _, d := range ordered {
		if err := ctx.Err(); err != nil {
			return c.finish(report, ordered), fmt.Errorf("bring-up cancelled: %w", err)
		}
		c.preActivate(ctx, d)
	}

	// Pass 2: post-activation for Ready devices, and binding for late binders.
	for _, d := range ordered {
		if err := ctx.Err(); err != nil {
			return c.finish(report, ordered), fmt.Errorf("bring-up cancelled: %w", err)
		}
		c.postActivate(ctx, d)
	}

	report = c.finish(report, ordered)
	log.Info("bring-up complete",
		"batch", report.BatchID,
		"ready", report.Ready,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report, nil
}

func (c *Coordinator) preActivate(ctx context.Context, d Device) {
	e := c.entry(d.Key())

	if err := d.PreActivate(ctx, c.env); err != nil {
		c.setErr(e, err)
		c.logger.Error("pre-activation failed", "device", d.Key(), "reason", binding.Reason(err), "error", err)
		return
	}
	if bindsLate(d) {
		c.logger.Debug("binding deferred to post-activation", "device", d.Key())
		return
	}
	c.register(e, d)
}

// register adds d to the registry and moves it to Ready.
func (c *Coordinator) register(e *entry, d Device) {
	if err := c.env.Registry.Add(d); err != nil {
		c.setErr(e, err)
		c.logger.Error("device registration failed", "device", d.Key(), "error", err)
		return
	}
	c.transition(e, PreActivated)
	c.transition(e, Ready)
	c.logger.Debug("device ready", "device", d.Key())
}

func (c *Coordinator) postActivate(ctx context.Context, d Device) {
	e := c.entry(d.Key())
	late := bindsLate(d)

	c.mu.RLock()
	state, preErr := e.state, e.err
	c.mu.RUnlock()
	if late && (state != Constructed || preErr != nil) {
		return
	}
	if !late && state != Ready {
		return
	}

	p, ok := d.(PostActivator)
	if !ok {
		if late {
			c.register(e, d)
		}
		return
	}

	err := p.PostActivate(ctx, c.env)
	switch {
	case late && err != nil:
		// The binding itself failed: the device stays Constructed and
		// unregistered, like a pre-activation failure.
		c.setErr(e, err)
		c.logger.Error("binding failed", "device", d.Key(), "reason", binding.Reason(err), "error", err)
	case late:
		c.register(e, d)
	case err != nil:
		c.mu.Lock()
		e.postErr = err
		c.mu.Unlock()
		c.logger.Error("post-activation failed", "device", d.Key(), "reason", binding.Reason(err), "error", err)
	}
}

func (c *Coordinator) entry(key string) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[strings.ToLower(key)]
}

func (c *Coordinator) stateOf(e *entry) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return e.state
}

func (c *Coordinator) setErr(e *entry, err error) {
	c.mu.Lock()
	e.err = err
	c.mu.Unlock()
}

func (c *Coordinator) transition(e *entry, s State) {
	c.mu.Lock()
	e.state = s
	listeners := append([]func(string, State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(e.dev.Key(), s)
	}
}

func (c *Coordinator) finish(r *Report, ordered []Device) *Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r.Duration = time.Since(r.Started)
	r.Devices = make([]DeviceReport, 0, len(ordered))
	for _, d := range ordered {
		e := c.entries[strings.ToLower(d.Key())]
		dr := DeviceReport{Key: d.Key(), Name: d.Name(), State: e.state}
		if e.err != nil {
			dr.Error = e.err.Error()
			dr.Reason = binding.Reason(e.err)
		}
		if e.postErr != nil {
			dr.PostError = e.postErr.Error()
		}
		if e.state == Ready {
			r.Ready++
		} else {
			r.Failed++
		}
		r.Devices = append(r.Devices, dr)
	}
	return r
}

// order sorts devices so that any device depending on another in the batch
// comes after it. The sort is stable: independent devices keep their
// original order. Devices caught in a cycle are appended in original order
// and their keys returned.
func order(devs []Device) ([]Device, []string) {
	index := make(map[string]int, len(devs))
	for i, d := range devs {
		index[strings.ToLower(d.Key())] = i
	}

	indegree := make([]int, len(devs))
	children := make([][]int, len(devs))
	for i, d := range devs {
		dep, ok := d.(Dependent)
		if !ok {
			continue
		}
		for _, p := range dep.DependsOn() {
			j, inBatch := index[strings.ToLower(p)]
			if !inBatch || j == i {
				continue
			}
			indegree[i]++
			children[j] = append(children[j], i)
		}
	}

	out := make([]Device, 0, len(devs))
	done := make([]bool, len(devs))
	for len(out) < len(devs) {
		progressed := false
		// Lowest original index with no unresolved parents goes next.
		for i := range devs {
			if done[i] || indegree[i] > 0 {
				continue
			}
			done[i] = true
			out = append(out, devs[i])
			for _, ch := range children[i] {
				indegree[ch]--
			}
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}

	var cyclic []string
	for i, d := range devs {
		if !done[i] {
			out = append(out, d)
			cyclic = append(cyclic, d.Key())
		}
	}
	return out, cyclic
}

// IsResolutionError reports whether err is one of the binding failures.
func IsResolutionError(err error) bool {
	return errors.Is(err, binding.ErrParentNotFound) ||
		errors.Is(err, binding.ErrParentIncapable) ||
		errors.Is(err, binding.ErrBranchNotFound) ||
		errors.Is(err, binding.ErrUnsupportedOnPlatform) ||
		errors.Is(err, binding.ErrRegistrationFailed) ||
		errors.Is(err, binding.ErrInvalidAddress)
}
