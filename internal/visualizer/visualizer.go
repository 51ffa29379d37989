// Package visualizer renders what the spy has discovered and owns the
// single live printing session.
package visualizer

import (
	"context"
	"io"

	"github.com/nfrund/netspy/internal/topics"
)

// Visualizer prints discovered entities and streams samples of one topic
// at a time.
type Visualizer interface {
	// TypeDiscovered reports whether the type definition of d is known.
	TypeDiscovered(d topics.Descriptor) bool
	// Activate starts printing samples of d. It returns false if printing
	// could not start.
	Activate(d topics.Descriptor) bool
	// Deactivate stops printing. No sample is printed after it returns.
	Deactivate()

	PrintParticipants(w io.Writer)
	PrintDataReaders(w io.Writer)
	PrintDataWriters(w io.Writer)
	PrintTopics(w io.Writer)
}

// DataSource delivers the samples of a topic until ctx is canceled.
type DataSource interface {
	SubscribeData(ctx context.Context, topic topics.Descriptor, handler func(topics.Sample)) error
}
