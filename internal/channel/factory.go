//go:build !debug

package channel

// New creates a new channel with the given buffer size.
// Production builds use a buffered channel so event emission never
// blocks the coordinator.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
