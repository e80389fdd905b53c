package feedback

import (
	"fmt"
	"strings"
	"sync"
)

// Collection is an ordered set of feedbacks addressable by key.
// Key lookup is case-insensitive; insertion order is preserved.
type Collection struct {
	mu    sync.RWMutex
	items []Any
	index map[string]int
}

// NewCollection creates a collection holding fbs.
func NewCollection(fbs ...Any) *Collection {
	c := &Collection{index: make(map[string]int)}
	for _, f := range fbs {
		c.Add(f)
	}
	return c
}

// Add appends a feedback. Adding a second feedback with the same key
// replaces the first in place.
func (c *Collection) Add(f Any) {
	k := strings.ToLower(f.Key())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[k]; ok {
		c.items[i] = f
		return
	}
	c.index[k] = len(c.items)
	c.items = append(c.items, f)
}

// Get returns the feedback with key.
func (c *Collection) Get(key string) (Any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[strings.ToLower(key)]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

// All returns the feedbacks in insertion order.
func (c *Collection) All() []Any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Any, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of feedbacks.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Fire calls FireUpdate on each named feedback. Unknown keys are returned
// as an error after the known ones have fired.
func (c *Collection) Fire(keys ...string) error {
	var missing []string
	for _, k := range keys {
		f, ok := c.Get(k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		f.FireUpdate()
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(missing, ", "))
	}
	return nil
}

// FireAll calls FireUpdate on every feedback in order.
func (c *Collection) FireAll() {
	for _, f := range c.All() {
		f.FireUpdate()
	}
}

// Snapshot returns key → current value for every feedback.
func (c *Collection) Snapshot() map[string]any {
	all := c.All()
	out := make(map[string]any, len(all))
	for _, f := range all {
		out[f.Key()] = f.Current()
	}
	return out
}
