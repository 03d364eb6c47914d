// Package bus holds the process-wide queues connecting request intake,
// the pipeline workers, and the deck builder.
//
// Queues are FIFO buffered channels shared across jobs, with no
// backpressure beyond the buffer. The result queue is heterogeneous:
// final report strings interleave with deck build notices, and each
// consumer filters for the types addressed to it.
package bus

import "github.com/rowanvale/chalkline/deck"

// DefaultCapacity sizes each queue's buffer.
const DefaultCapacity = 64

// Bus bundles the three queues.
type Bus struct {
	// Tasks carries raw user requests awaiting a pipeline worker.
	Tasks chan string

	// Results carries final report strings and deck.BuildNotice values.
	Results chan any

	// Decks carries build requests for the deck builder.
	Decks chan deck.Request
}

// New creates a Bus with the given buffer capacity per queue.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		Tasks:   make(chan string, capacity),
		Results: make(chan any, capacity),
		Decks:   make(chan deck.Request, capacity),
	}
}
