// Package modules is the catalogue of hardware adapters.
//
// Each adapter turns one device descriptor into a Module: a device that
// binds its endpoint during pre-activation, exposes feedbacks computed
// from the endpoint's points, maps hardware events to the feedbacks they
// invalidate, and offers named actions and a default join map to the
// bridge linker.
//
// # Usage
//
//	cat := modules.NewCatalogue(modules.Options{Logger: log})
//	descs, _ = modules.ExpandCards(descs)
//	for _, d := range descs {
//	    m, err := cat.Build(d)
//	    if err != nil {
//	        continue // unknown type, logged by the caller
//	    }
//	    coordinator.Add(m)
//	}
//
// # Thread Safety
//
// Modules are safe for concurrent use. Feedback pulls read the endpoint
// without holding module locks.
package modules
