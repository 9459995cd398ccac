// Package protocol defines the minimal façade every protocol under
// simulation must implement, so that surrounding tooling (a scenario
// runner, a server wrapper, a plotter) can drive any of them without
// knowing their concrete type.
package protocol

import "github.com/example/distsim/sim"

// Protocol is the contract a simulated protocol exposes to its runner.
type Protocol interface {
	// Init populates nodes into the protocol's kernel and schedules the
	// initial wave of events.
	Init()
	// Copy returns an independent instance with identical parameters,
	// sharing no mutable state with the receiver.
	Copy() Protocol
	// Network returns the kernel this protocol drives.
	Network() *sim.Kernel
}
