// Package handle defines the two external collaborator interfaces named in
// spec section 1: a Handle capable of emitting named events and answering
// "is shutting down?", and a KvStore for reading/writing settings. Both are
// implemented outside this module (by the GUI shell / config layer, which
// are explicitly out of scope); this package only defines the seam.
package handle

// Handle is the event-emission and lifecycle-query collaborator consumed by
// every component that needs to surface progress/lifecycle events (§6) or
// check whether the process is shutting down.
type Handle interface {
	// Emit sends a named event with an arbitrary payload to the external
	// shell. Implementations must not block on slow consumers; components
	// in this module do not wait for delivery.
	Emit(event string, payload any)

	// ShuttingDown reports whether the process has begun an orderly
	// shutdown. Components treat this as cancellation (§5).
	ShuttingDown() bool
}

// KvStore is the typed key-value persistence collaborator used by the
// Settings component (C19). Values are opaque to this module; Settings
// encodes/decodes the typed representation.
type KvStore interface {
	// Get returns the raw stored value for key and whether it was present.
	Get(key string) (value string, ok bool)

	// Set stores value under key.
	Set(key string, value string) error

	// Delete removes key, if present.
	Delete(key string) error
}

// Noop is a Handle that discards all events and never reports shutdown. It
// is useful as a default collaborator in tests and for components exercised
// outside of the full application wiring.
type Noop struct{}

// Emit implements Handle by discarding the event.
func (Noop) Emit(string, any) {}

// ShuttingDown implements Handle, always returning false.
func (Noop) ShuttingDown() bool { return false }
