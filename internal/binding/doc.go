// Package binding resolves device descriptors to registered hardware endpoints.
//
// Resolution walks at most one parent hop per device; multi-hop chains
// (gateway behind a hub behind the processor) resolve because each parent
// was itself resolved, and registered, earlier in bring-up.
//
//	parent_key empty or "processor"  -> controller.Host(transport)
//	parent_key names a device        -> parent.Branch(transport, branch_index)
//
// The resolver depends only on the hardware capability interfaces. A
// parent that is not a hardware.HasBranches, or has no branches of the
// device's transport, fails with ErrParentIncapable.
//
// Failures are returned and logged. Nothing is retried here.
package binding
