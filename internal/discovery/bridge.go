package discovery

import (
	"github.com/nfrund/netspy/internal/topics"
)

// TopicSink receives the topics extracted from discovered endpoints.
type TopicSink interface {
	Add(topics.Descriptor)
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithDropHandler is called for every endpoint the bridge discards.
func WithDropHandler(fn func(Endpoint)) BridgeOption {
	return func(b *Bridge) {
		b.onDrop = fn
	}
}

// Bridge forwards the topic of every discovered endpoint to a TopicSink.
// It is safe for concurrent use and never panics back into the discovery source.
type Bridge struct {
	sink   TopicSink
	onDrop func(Endpoint)
}

var _ EndpointListener = (*Bridge)(nil)

// NewBridge creates a bridge feeding sink.
func NewBridge(sink TopicSink, opts ...BridgeOption) *Bridge {
	b := &Bridge{sink: sink}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnEndpointDiscovered implements EndpointListener.
// Endpoints without a topic name are dropped.
func (b *Bridge) OnEndpointDiscovered(e Endpoint) {
	defer func() {
		if r := recover(); r != nil {
			b.drop(e)
		}
	}()

	if e.Topic.Name == "" {
		b.drop(e)
		return
	}
	b.sink.Add(e.Topic)
}

// drop reports e to the drop handler. A panicking handler is ignored.
func (b *Bridge) drop(e Endpoint) {
	if b.onDrop == nil {
		return
	}
	defer func() { _ = recover() }()
	b.onDrop(e)
}
