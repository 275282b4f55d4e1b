//go:build debug

package channel

// New creates a new channel.
// Debug builds use an unbuffered channel (ignores size) to surface
// missing consumers immediately.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
