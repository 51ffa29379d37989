// Package testutils holds helpers shared by the package tests.
package testutils

import (
	"bytes"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/nfrund/netspy/internal/discovery"
	"github.com/nfrund/netspy/internal/pubsub"
	"github.com/nfrund/netspy/internal/topics"
)

// NewBus returns an in-memory bus that is closed when the test ends.
func NewBus(t *testing.T, workers int) *pubsub.WatermillBridge {
	t.Helper()
	bus := pubsub.NewWatermillBridge(pubsub.WithWorkers(workers))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

// WriterOn builds a data writer endpoint on a fresh participant.
func WriterOn(name, typeName string) discovery.Endpoint {
	return discovery.Endpoint{
		GUID:        uuid.New(),
		Participant: uuid.New(),
		Kind:        discovery.KindWriter,
		Topic:       topics.NewDescriptor(name, typeName, topics.QoS{Reliable: true}),
	}
}

// SyncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
