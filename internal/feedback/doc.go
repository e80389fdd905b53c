// Package feedback provides observable scalar values derived from device state.
//
// A Feedback wraps a pull function that reads live endpoint state. Reads are
// never cached. FireUpdate re-reads and pushes to linked sinks even when
// nothing changed, so sinks (bridge joins, telemetry) must treat pushes as
// idempotent last-write-wins updates.
//
// Usage:
//
//	enable := feedback.NewBool("Enable", func() bool { return ep.Bool("Enable") })
//	enable.Link(func(v bool) { bridge.SetBool(12, v) })
//	enable.FireUpdate()
package feedback
