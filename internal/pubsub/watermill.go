package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Metadata keys used to transfer our Message structure fields through watermill's message.
	metaKeySource = "source"
	metaKeyTopic  = "topic"

	defaultWorkers = 1
)

// Option configures a WatermillBridge.
type Option func(*WatermillBridge)

// WithWorkers sets how many goroutines run the handler of each subscription.
// With more than one worker, handlers are called concurrently and without ordering.
func WithWorkers(n int) Option {
	return func(wb *WatermillBridge) {
		if n > 0 {
			wb.workers = n
		}
	}
}

// WithTracer traces publish and delivery with the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(wb *WatermillBridge) {
		wb.tracer = tracer
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(wb *WatermillBridge) {
		if logger != nil {
			wb.log = logger
		}
	}
}

// WatermillBridge implements the Publisher and Subscriber interfaces using watermill's GoChannel.
type WatermillBridge struct {
	pub message.Publisher
	sub message.Subscriber
	// Logger for watermill to use
	logger watermill.LoggerAdapter

	log     *slog.Logger
	tracer  trace.Tracer
	workers int
	wg      sync.WaitGroup
}

var _ Bus = (*WatermillBridge)(nil)

// NewWatermillBridge initializes an in-memory Pub/Sub system.
func NewWatermillBridge(opts ...Option) *WatermillBridge {
	logger := watermill.NewStdLogger(false, false)
	// GoChannel is a simple in-memory pub/sub implementation.
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{},
		logger,
	)

	wb := &WatermillBridge{
		pub:     goChannel,
		sub:     goChannel,
		logger:  logger,
		log:     slog.Default(),
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(wb)
	}
	wb.log = wb.log.With("component", "pubsub")
	if wb.tracer != nil {
		wb.pub = newTracingPublisher(goChannel, wb.tracer)
	}
	return wb
}

// mapToWatermillMessage converts our pubsub.Message to a watermill message.
func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)

	// Transfer our custom fields to watermill's metadata
	wmMsg.Metadata.Set(metaKeySource, msg.Source)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)

	// Merge any additional metadata
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}

	return wmMsg
}

// mapToPubSubMessage converts a watermill message back to our internal pubsub.Message.
func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string)
	for k, v := range wmMsg.Metadata {
		if k != metaKeySource && k != metaKeyTopic {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		Source:   wmMsg.Metadata.Get(metaKeySource),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	wmMsg := mapToWatermillMessage(msg)
	wmMsg.SetContext(ctx)
	// We use the message's internal topic (msg.Topic) as the watermill topic.
	return wb.pub.Publish(msg.Topic, wmMsg)
}

// Subscribe implements the Subscriber interface.
// It returns once the subscription is active; messages are handled in the background
// until ctx is canceled or the bridge is closed.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	// GoChannel holds back the next message until the current one is acked, so the
	// receiver acks as soon as a worker queue accepts the message.
	jobs := make(chan *message.Message, wb.workers)

	wb.wg.Add(1)
	go func() {
		defer wb.wg.Done()
		defer close(jobs)
		for wmMsg := range messages {
			jobs <- wmMsg.Copy()
			wmMsg.Ack()
		}
		wb.log.Debug("Subscription message loop ended", "topic", topic)
	}()

	for i := 0; i < wb.workers; i++ {
		wb.wg.Add(1)
		go func() {
			defer wb.wg.Done()
			for wmMsg := range jobs {
				wb.handle(ctx, topic, wmMsg, handler)
			}
		}()
	}

	return nil
}

func (wb *WatermillBridge) handle(ctx context.Context, topic string, wmMsg *message.Message, handler Handler) {
	var span trace.Span
	if wb.tracer != nil {
		ctx, span = startProcessSpan(ctx, wb.tracer, topic, wmMsg)
		defer span.End()
	}

	msg := mapToPubSubMessage(wmMsg)
	if err := handler(ctx, msg); err != nil {
		// The in-memory bus has no redelivery, so a failed message is only logged.
		wb.log.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
}

// Close implements the Publisher and Subscriber interface to shut down the bridge.
// It returns after every running handler has finished.
func (wb *WatermillBridge) Close() error {
	// Closing the subscriber will close the gochannel and stop message consumption.
	err := wb.sub.Close()
	wb.wg.Wait()
	return err
}
