package pipeline

import (
	"context"
	"time"

	"github.com/nfrund/netspy/internal/discovery"
	"github.com/nfrund/netspy/internal/pubsub"
	"github.com/nfrund/netspy/internal/topics"
)

// Bus topics carrying discovery announcements.
const (
	TopicParticipants = "netspy.discovery.participant"
	TopicEndpoints    = "netspy.discovery.endpoint"
	TopicTypes        = "netspy.discovery.type"

	dataTopicPrefix = "netspy.data."
)

const (
	metaKeyTypeName  = "type_name"
	metaKeyTimestamp = "timestamp"
)

// DataTopic returns the bus topic carrying samples for a network topic.
func DataTopic(topicName string) string {
	return dataTopicPrefix + topicName
}

// AnnounceParticipant publishes a participant discovery message.
func AnnounceParticipant(ctx context.Context, pub pubsub.Publisher, p discovery.Participant) error {
	return pubsub.PublishJSON(ctx, pub, TopicParticipants, p.GUID.String(), p)
}

// AnnounceEndpoint publishes an endpoint discovery message.
func AnnounceEndpoint(ctx context.Context, pub pubsub.Publisher, e discovery.Endpoint) error {
	return pubsub.PublishJSON(ctx, pub, TopicEndpoints, e.Participant.String(), e)
}

// AnnounceType publishes a type definition on behalf of source.
func AnnounceType(ctx context.Context, pub pubsub.Publisher, source string, info discovery.TypeInfo) error {
	return pubsub.PublishJSON(ctx, pub, TopicTypes, source, info)
}

// PublishSample publishes payload as a sample written by writer.
func PublishSample(ctx context.Context, pub pubsub.Publisher, writer discovery.Endpoint, payload []byte) error {
	return pub.Publish(ctx, pubsub.Message{
		Topic:   DataTopic(writer.Topic.Name),
		Source:  writer.GUID.String(),
		Payload: payload,
		Metadata: map[string]string{
			metaKeyTypeName:  writer.Topic.TypeName,
			metaKeyTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

func sampleFromMessage(topicName string, msg pubsub.Message) topics.Sample {
	s := topics.Sample{
		Topic:    topicName,
		TypeName: msg.Metadata[metaKeyTypeName],
		Writer:   msg.Source,
		Payload:  msg.Payload,
		Received: time.Now(),
	}
	if ts, err := time.Parse(time.RFC3339Nano, msg.Metadata[metaKeyTimestamp]); err == nil {
		s.Received = ts
	}
	return s
}
