package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nfrund/netspy/internal/discovery"
	"github.com/nfrund/netspy/internal/pubsub"
	"github.com/nfrund/netspy/internal/topics"
)

var (
	// ErrDisabled is returned for data subscriptions while the pipeline is disabled.
	ErrDisabled = errors.New("pipeline is disabled")
	// ErrTopicBlocked is returned for data subscriptions on topics the allowed list rejects.
	ErrTopicBlocked = errors.New("topic is not allowed")
)

// StatusCode is the outcome of a pipeline reconfiguration.
type StatusCode int

const (
	StatusOK StatusCode = iota
	// StatusNoChange means the new configuration equals the current one.
	StatusNoChange
	StatusError
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusNoChange:
		return "no change"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(c))
	}
}

// Pipeline listens to discovery traffic on a bus and feeds a discovery
// database. Callbacks never run while the pipeline is disabled.
type Pipeline struct {
	bus     pubsub.Bus
	db      *discovery.Database
	allowed atomic.Pointer[AllowedTopicList]
	logger  *slog.Logger

	// mu is held for reading by every running callback and for writing
	// while the pipeline changes state.
	mu      sync.RWMutex
	enabled bool
	cancel  context.CancelFunc
}

// New creates a disabled pipeline. A nil allowed list admits every topic.
func New(bus pubsub.Bus, db *discovery.Database, allowed *AllowedTopicList, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if allowed == nil {
		allowed = NewAllowedTopicList(nil, nil)
	}
	p := &Pipeline{
		bus:    bus,
		db:     db,
		logger: logger.With("component", "pipeline"),
	}
	p.allowed.Store(allowed)
	return p
}

// Enable starts consuming discovery announcements. Enabling an enabled
// pipeline does nothing.
func (p *Pipeline) Enable() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	subscriptions := []struct {
		topic   string
		handler pubsub.Handler
	}{
		{TopicParticipants, p.onParticipant},
		{TopicEndpoints, p.onEndpoint},
		{TopicTypes, p.onType},
	}
	for _, s := range subscriptions {
		if err := p.bus.Subscribe(ctx, s.topic, p.guard(s.handler)); err != nil {
			cancel()
			return fmt.Errorf("subscribe to %s: %w", s.topic, err)
		}
	}

	p.cancel = cancel
	p.enabled = true
	p.logger.Info("Pipeline enabled")
	return nil
}

// Disable stops all callbacks. It returns once no callback is running.
// Disabling a disabled pipeline does nothing.
func (p *Pipeline) Disable() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return nil
	}
	p.enabled = false
	p.cancel()
	p.cancel = nil
	p.logger.Info("Pipeline disabled")
	return nil
}

// Enabled reports whether the pipeline is consuming announcements.
func (p *Pipeline) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// ReloadAllowedTopics swaps the allowed topic list.
func (p *Pipeline) ReloadAllowedTopics(list *AllowedTopicList) StatusCode {
	if list == nil {
		return StatusError
	}
	if list.Equal(p.allowed.Load()) {
		return StatusNoChange
	}
	p.allowed.Store(list)
	p.logger.Info("Allowed topics reloaded",
		"allowlist", len(list.Allowlist()),
		"blocklist", len(list.Blocklist()))
	return StatusOK
}

// AllowedTopics returns the list currently in force.
func (p *Pipeline) AllowedTopics() *AllowedTopicList {
	return p.allowed.Load()
}

// SubscribeData delivers samples of topic to handler until ctx is canceled.
// Samples whose type does not match the topic's type are dropped, as are
// samples arriving after the topic has been blocked by a reload.
func (p *Pipeline) SubscribeData(ctx context.Context, topic topics.Descriptor, handler func(topics.Sample)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.enabled {
		return ErrDisabled
	}
	if !p.allowed.Load().IsAllowed(topic) {
		return fmt.Errorf("%w: %s", ErrTopicBlocked, topic.Name)
	}

	return p.bus.Subscribe(ctx, DataTopic(topic.Name), p.guard(func(_ context.Context, msg pubsub.Message) error {
		sample := sampleFromMessage(topic.Name, msg)
		if sample.TypeName != "" && sample.TypeName != topic.TypeName {
			p.logger.Debug("Dropping sample with mismatched type",
				"topic", topic.Name, "expected", topic.TypeName, "got", sample.TypeName)
			return nil
		}
		if !p.allowed.Load().IsAllowed(topic) {
			return nil
		}
		handler(sample)
		return nil
	}))
}

func (p *Pipeline) guard(h pubsub.Handler) pubsub.Handler {
	return func(ctx context.Context, msg pubsub.Message) error {
		p.mu.RLock()
		defer p.mu.RUnlock()
		if !p.enabled {
			return nil
		}
		return h(ctx, msg)
	}
}

func (p *Pipeline) onParticipant(_ context.Context, msg pubsub.Message) error {
	participant, err := pubsub.DecodeJSON[discovery.Participant](msg)
	if err != nil {
		return err
	}
	p.db.AddParticipant(participant)
	return nil
}

func (p *Pipeline) onEndpoint(_ context.Context, msg pubsub.Message) error {
	endpoint, err := pubsub.DecodeJSON[discovery.Endpoint](msg)
	if err != nil {
		return err
	}
	p.db.AddEndpoint(endpoint)
	return nil
}

func (p *Pipeline) onType(_ context.Context, msg pubsub.Message) error {
	info, err := pubsub.DecodeJSON[discovery.TypeInfo](msg)
	if err != nil {
		return err
	}
	if info.Name == "" {
		return errors.New("type announcement without a name")
	}
	p.db.AddType(info)
	return nil
}
