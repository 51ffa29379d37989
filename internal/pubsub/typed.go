package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// PublishJSON marshals payload and publishes it on topic.
func PublishJSON[T any](ctx context.Context, p Publisher, topic, source string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	return p.Publish(ctx, Message{
		Topic:   topic,
		Source:  source,
		Payload: data,
	})
}

// DecodeJSON unmarshals a message payload published with PublishJSON.
func DecodeJSON[T any](msg Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", msg.Topic, err)
	}
	return out, nil
}
