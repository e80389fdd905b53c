// Package hardware defines the boundary to physical devices as a small set
// of capability interfaces.
//
// Nothing above this package depends on concrete hardware types. A device
// adapter holds an Endpoint; a bridging parent additionally implements
// HasBranches; the root Controller supplies top-level hosts and built-in
// devices. Model point names and event identifiers live in the models
// subpackage and an in-process implementation lives in sim.
package hardware
