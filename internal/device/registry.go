package device

import (
	"fmt"
	"strings"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry maps device keys to live devices.
//
// It is append-only: a key is added once and never replaced or removed.
// Devices are added as they finish pre-activation and looked up by later
// devices that name them as a parent. Keys are matched case-insensitively.
//
// The registry is not a singleton; pass it to whoever needs it.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]Device
	order   []Device
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]Device),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Add registers d under d.Key().
// Returns ErrDeviceExists if the key is taken.
func (r *Registry) Add(d Device) error {
	if d == nil || d.Key() == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDevice)
	}
	k := strings.ToLower(d.Key())

	r.mu.Lock()
	if existing, ok := r.devices[k]; ok {
		r.mu.Unlock()
		r.logger.Warn("device key already registered", "key", d.Key(), "existing", existing.Name())
		return fmt.Errorf("%w: %s", ErrDeviceExists, d.Key())
	}
	r.devices[k] = d
	r.order = append(r.order, d)
	r.mu.Unlock()

	r.logger.Debug("device registered", "key", d.Key(), "name", d.Name())
	return nil
}

// Get returns the device for key.
// Returns ErrDeviceNotFound if it is not registered.
func (r *Registry) Get(key string) (Device, error) {
	d, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, key)
	}
	return d, nil
}

// Lookup returns the device for key and whether it exists.
func (r *Registry) Lookup(key string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[strings.ToLower(key)]
	return d, ok
}

// List returns all devices in the order they were added.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
