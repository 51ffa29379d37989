package discovery

import (
	"github.com/google/uuid"

	"github.com/nfrund/netspy/internal/topics"
)

// Kind tells readers and writers apart.
type Kind int

const (
	KindWriter Kind = iota
	KindReader
)

func (k Kind) String() string {
	switch k {
	case KindWriter:
		return "writer"
	case KindReader:
		return "reader"
	default:
		return "unknown"
	}
}

// Participant is a logical node on the network that owns endpoints.
type Participant struct {
	GUID   uuid.UUID `json:"guid"`
	Name   string    `json:"name"`
	Domain int       `json:"domain"`
}

// Endpoint is a data writer or data reader attached to a topic.
type Endpoint struct {
	GUID        uuid.UUID         `json:"guid"`
	Participant uuid.UUID         `json:"participant"`
	Kind        Kind              `json:"kind"`
	Topic       topics.Descriptor `json:"topic"`
}

// TypeInfo describes a wire type whose definition has been received.
type TypeInfo struct {
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

// EndpointListener receives every newly discovered endpoint.
type EndpointListener interface {
	OnEndpointDiscovered(Endpoint)
}

// EndpointListenerFunc adapts a function to EndpointListener.
type EndpointListenerFunc func(Endpoint)

// OnEndpointDiscovered calls f(e).
func (f EndpointListenerFunc) OnEndpointDiscovered(e Endpoint) {
	f(e)
}

// Source is anything endpoint listeners can be attached to.
type Source interface {
	Subscribe(EndpointListener)
}
