package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nfrund/netspy/internal/discovery"
	"github.com/nfrund/netspy/internal/pubsub"
	"github.com/nfrund/netspy/internal/topics"
)

// SimulatedTopic is a topic the simulator writes to.
type SimulatedTopic struct {
	Name     string
	TypeName string
	QoS      topics.QoS
	// AnnounceType controls whether the type definition is published. A
	// topic whose type is never announced can be listed but not printed.
	AnnounceType bool
}

// Simulator stands in for remote applications: a publisher participant with
// one writer per topic and a subscriber participant with one reader per
// topic. Once started it writes a sample on every topic each interval.
type Simulator struct {
	pub      pubsub.Publisher
	topics   []SimulatedTopic
	interval time.Duration
	logger   *slog.Logger

	publisher  discovery.Participant
	subscriber discovery.Participant
	writers    []discovery.Endpoint
	readers    []discovery.Endpoint

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSimulator prepares the simulated participants. Nothing is published
// until Start.
func NewSimulator(pub pubsub.Publisher, domain int, simulated []SimulatedTopic, interval time.Duration, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}

	s := &Simulator{
		pub:        pub,
		topics:     simulated,
		interval:   interval,
		logger:     logger.With("component", "simulator"),
		publisher:  discovery.Participant{GUID: uuid.New(), Name: "netspy_simulated_publisher", Domain: domain},
		subscriber: discovery.Participant{GUID: uuid.New(), Name: "netspy_simulated_subscriber", Domain: domain},
	}
	for _, t := range simulated {
		d := topics.NewDescriptor(t.Name, t.TypeName, t.QoS)
		s.writers = append(s.writers, discovery.Endpoint{
			GUID: uuid.New(), Participant: s.publisher.GUID, Kind: discovery.KindWriter, Topic: d,
		})
		s.readers = append(s.readers, discovery.Endpoint{
			GUID: uuid.New(), Participant: s.subscriber.GUID, Kind: discovery.KindReader, Topic: d,
		})
	}
	return s
}

// Writers returns the simulated data writers.
func (s *Simulator) Writers() []discovery.Endpoint {
	return append([]discovery.Endpoint(nil), s.writers...)
}

// Start announces the simulated entities and begins writing samples.
// Starting a running simulator does nothing.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}
	if err := s.announce(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(runCtx)

	s.logger.Info("Simulator started", "topics", len(s.topics), "interval", s.interval)
	return nil
}

// Stop halts sample writing and waits for the writer loop to return.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("Simulator stopped")
}

func (s *Simulator) announce(ctx context.Context) error {
	for _, p := range []discovery.Participant{s.publisher, s.subscriber} {
		if err := AnnounceParticipant(ctx, s.pub, p); err != nil {
			return fmt.Errorf("announce participant %s: %w", p.Name, err)
		}
	}

	announced := make(map[string]bool)
	for i, t := range s.topics {
		if t.AnnounceType && !announced[t.TypeName] {
			info := discovery.TypeInfo{Name: t.TypeName, Definition: "struct " + t.TypeName}
			if err := AnnounceType(ctx, s.pub, s.publisher.GUID.String(), info); err != nil {
				return fmt.Errorf("announce type %s: %w", t.TypeName, err)
			}
			announced[t.TypeName] = true
		}
		for _, e := range []discovery.Endpoint{s.writers[i], s.readers[i]} {
			if err := AnnounceEndpoint(ctx, s.pub, e); err != nil {
				return fmt.Errorf("announce %s on %s: %w", e.Kind, t.Name, err)
			}
		}
	}
	return nil
}

type simulatedPayload struct {
	Seq    uint64    `json:"seq"`
	Topic  string    `json:"topic"`
	SentAt time.Time `json:"sent_at"`
}

func (s *Simulator) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			seq++
			for _, w := range s.writers {
				payload, err := json.Marshal(simulatedPayload{Seq: seq, Topic: w.Topic.Name, SentAt: now.UTC()})
				if err != nil {
					s.logger.Error("Failed to encode sample", "topic", w.Topic.Name, "error", err)
					continue
				}
				if err := PublishSample(ctx, s.pub, w, payload); err != nil {
					s.logger.Warn("Failed to publish sample", "topic", w.Topic.Name, "error", err)
				}
			}
		}
	}
}
