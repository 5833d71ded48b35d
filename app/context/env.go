package context

// Environment provides access to the process environment variables. Tests
// replace it with an in-memory implementation.
type Environment interface {
	// Get returns the value of the variable key, or an empty string if it
	// isn't set.
	Get(key string) string
	// Set sets the variable key to val.
	Set(key, val string) error
}
