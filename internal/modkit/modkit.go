package modkit

// Module is the common surface a service module exposes to the binary
// keep this tiny so modules stay decoupled
type Module interface {
	// Ports returns a module specific port set for cross wiring
	Ports() any

	// Name returns the module name
	Name() string

	// Close releases clients the module opened
	Close()
}
