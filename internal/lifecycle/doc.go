// Package lifecycle runs the two-phase device bring-up.
//
//	Constructed --PreActivate ok--> PreActivated --> Ready
//	Constructed --PreActivate err-> Constructed (unbound, reported)
//
// A Coordinator holds an explicit pending list. Activate pre-activates
// every pending device (parents first, see Dependent), registering each
// success in the device registry, and only then runs PostActivate for the
// devices that reached Ready. Failures are per device; the batch goes on.
//
// Post-activation steps that must wait for hardware use WhenOnline, which
// also runs immediately when the endpoint is already online.
package lifecycle
