package liveness

// ringBuffer is a fixed-capacity FIFO over insertion order. Append evicts the
// oldest element once full; both operations are O(1).
type ringBuffer[T any] struct {
	data []T
	head int
	size int
}

func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ringBuffer[T]{data: make([]T, capacity)}
}

func (rb *ringBuffer[T]) Append(v T) {
	tail := (rb.head + rb.size) % len(rb.data)
	rb.data[tail] = v
	if rb.size == len(rb.data) {
		rb.head = (rb.head + 1) % len(rb.data)
	} else {
		rb.size++
	}
}

func (rb *ringBuffer[T]) Len() int { return rb.size }

func (rb *ringBuffer[T]) Cap() int { return len(rb.data) }

func (rb *ringBuffer[T]) Full() bool { return rb.size == len(rb.data) }

// Values returns the buffered elements oldest first.
func (rb *ringBuffer[T]) Values() []T {
	out := make([]T, rb.size)
	for i := 0; i < rb.size; i++ {
		out[i] = rb.data[(rb.head+i)%len(rb.data)]
	}
	return out
}

// Tail returns the newest n elements oldest first. n larger than the buffer
// returns everything.
func (rb *ringBuffer[T]) Tail(n int) []T {
	if n > rb.size {
		n = rb.size
	}
	out := make([]T, n)
	start := rb.size - n
	for i := 0; i < n; i++ {
		out[i] = rb.data[(rb.head+start+i)%len(rb.data)]
	}
	return out
}

func (rb *ringBuffer[T]) Clear() {
	var zero T
	for i := range rb.data {
		rb.data[i] = zero
	}
	rb.head = 0
	rb.size = 0
}
