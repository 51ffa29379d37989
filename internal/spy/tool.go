// Package spy wires the discovery pipeline, the topic registry and the
// interactive console into one tool.
package spy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/nfrund/netspy/internal/config"
	"github.com/nfrund/netspy/internal/console"
	"github.com/nfrund/netspy/internal/discovery"
	"github.com/nfrund/netspy/internal/pipeline"
	"github.com/nfrund/netspy/internal/pubsub"
	"github.com/nfrund/netspy/internal/topics"
	"github.com/nfrund/netspy/internal/visualizer"
)

// Lifecycle is the part of the pipeline the tool drives.
type Lifecycle interface {
	Enable() error
	Disable() error
	ReloadAllowedTopics(*pipeline.AllowedTopicList) pipeline.StatusCode
}

// Option configures a Tool.
type Option func(*options)

type options struct {
	in         io.Reader
	out        io.Writer
	logger     *slog.Logger
	fs         afero.Fs
	configPath string
}

// WithInput sets where commands are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(o *options) { o.in = r }
}

// WithOutput sets where the console writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConfigFile names the file the configuration came from. With
// reload.watch set, the allowed topics are reloaded whenever it changes.
func WithConfigFile(fsys afero.Fs, path string) Option {
	return func(o *options) {
		o.fs = fsys
		o.configPath = path
	}
}

// Tool is a running spy. Discovery starts in New; Run hands the terminal to
// the operator.
type Tool struct {
	cfg    *config.Config
	opts   options
	logger *slog.Logger

	injector  *do.RootScope
	bus       pubsub.Bus
	registry  *topics.Registry
	database  *discovery.Database
	lifecycle Lifecycle
	loop      *console.Loop
	metrics   *Metrics
	simulator *pipeline.Simulator
	watcher   *pipeline.Watcher

	shutdownTracing func()
	closeOnce       sync.Once
	closeErr        error
}

// New validates cfg, builds every component and enables discovery. On
// failure everything already started is torn down.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Tool, error) {
	if cfg == nil {
		return nil, &config.ConfigurationError{Message: "no configuration given"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{in: os.Stdin, out: os.Stdout, logger: slog.Default(), fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tool{cfg: cfg, opts: o, logger: o.logger.With("component", "spy")}
	if err := t.start(ctx); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

func (t *Tool) start(ctx context.Context) error {
	tracer, shutdown, err := pubsub.SetupOTel(ctx, pubsub.TracingConfig{
		Enabled:     t.cfg.Tracing.Enabled,
		ServiceName: t.cfg.Tracing.ServiceName,
		ZipkinURL:   t.cfg.Tracing.ZipkinURL,
		SampleRatio: t.cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	t.shutdownTracing = shutdown

	t.injector = t.provide(pubsub.NewWatermillBridge(
		pubsub.WithWorkers(t.cfg.Threads),
		pubsub.WithTracer(tracer),
		pubsub.WithLogger(t.opts.logger),
	))

	t.bus = do.MustInvoke[pubsub.Bus](t.injector)
	t.metrics = do.MustInvoke[*Metrics](t.injector)
	t.registry = do.MustInvoke[*topics.Registry](t.injector)
	t.database = do.MustInvoke[*discovery.Database](t.injector)
	t.loop = do.MustInvoke[*console.Loop](t.injector)
	t.lifecycle = do.MustInvoke[*pipeline.Pipeline](t.injector)

	t.metrics.TrackTopics(t.registry.Count)
	t.database.Subscribe(discovery.NewBridge(t.registry, discovery.WithDropHandler(func(e discovery.Endpoint) {
		t.logger.Warn("Dropped discovered endpoint", "guid", e.GUID, "kind", e.Kind)
		t.metrics.EndpointsDropped.Inc()
	})))
	t.database.Subscribe(t.metrics)

	if err := t.lifecycle.Enable(); err != nil {
		return fmt.Errorf("enable pipeline: %w", err)
	}

	if t.cfg.Simulation.Enabled {
		t.simulator = pipeline.NewSimulator(t.bus, t.cfg.Domain, simulatedTopics(t.cfg), t.cfg.Simulation.Interval, t.opts.logger)
		if err := t.simulator.Start(ctx); err != nil {
			return fmt.Errorf("start simulator: %w", err)
		}
	}

	if t.cfg.Reload.Watch && t.opts.configPath != "" {
		t.watcher = pipeline.NewWatcher(t.opts.configPath, t.reloadFromFile, t.opts.logger).
			WithDebounce(t.cfg.Reload.Debounce)
		if err := t.watcher.Start(ctx); err != nil {
			return fmt.Errorf("watch configuration: %w", err)
		}
	}

	t.logger.Info("Spy started", "threads", t.cfg.Threads, "domain", t.cfg.Domain)
	return nil
}

// provide registers every component with a fresh injector. Services are
// built lazily on first invocation.
func (t *Tool) provide(bus pubsub.Bus) *do.RootScope {
	injector := do.New()
	logger := t.opts.logger
	out := &lockedWriter{w: t.opts.out}

	do.ProvideValue(injector, t.cfg)
	do.ProvideValue(injector, bus)
	do.Provide(injector, func(do.Injector) (*Metrics, error) {
		return NewMetrics(), nil
	})
	do.Provide(injector, func(i do.Injector) (*topics.Registry, error) {
		metrics := do.MustInvoke[*Metrics](i)
		return topics.NewRegistry(topics.WithConflictHandler(func(existing, rediscovered topics.Descriptor) {
			logger.Warn("Topic rediscovered with a different type",
				"topic", existing.Name, "kept", existing.TypeName, "ignored", rediscovered.TypeName)
			metrics.TopicConflicts.Inc()
		})), nil
	})
	do.Provide(injector, func(do.Injector) (*discovery.Database, error) {
		return discovery.NewDatabase(logger), nil
	})
	do.Provide(injector, func(i do.Injector) (*pipeline.Pipeline, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return pipeline.New(
			do.MustInvoke[pubsub.Bus](i),
			do.MustInvoke[*discovery.Database](i),
			allowedTopics(cfg),
			logger,
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*visualizer.Network, error) {
		return visualizer.NewNetwork(
			do.MustInvoke[*discovery.Database](i),
			do.MustInvoke[*pipeline.Pipeline](i),
			out,
			logger,
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*visualizer.Session, error) {
		return visualizer.NewSession(do.MustInvoke[*visualizer.Network](i), logger), nil
	})
	do.Provide(injector, func(i do.Injector) (*console.Loop, error) {
		return console.NewLoop(
			console.NewReader(t.opts.in, console.DefaultGrammar()),
			out,
			do.MustInvoke[*topics.Registry](i),
			do.MustInvoke[*visualizer.Network](i),
			do.MustInvoke[*visualizer.Session](i),
			console.WithLogger(logger),
		), nil
	})
	return injector
}

// Run drives the interactive console until the operator exits, input ends
// or ctx is canceled.
func (t *Tool) Run(ctx context.Context) error {
	return t.loop.Run(ctx)
}

// ReloadAllowedTopics replaces the allowed topic list of the pipeline.
func (t *Tool) ReloadAllowedTopics(list *pipeline.AllowedTopicList) pipeline.StatusCode {
	return t.lifecycle.ReloadAllowedTopics(list)
}

func (t *Tool) reloadFromFile() {
	cfg, err := config.Load(t.opts.fs, t.opts.configPath)
	if err != nil {
		t.logger.Warn("Ignoring invalid configuration change", "path", t.opts.configPath, "error", err)
		return
	}
	status := t.ReloadAllowedTopics(allowedTopics(cfg))
	t.logger.Info("Configuration reloaded", "path", t.opts.configPath, "status", status)
}

// Registry returns the topics discovered so far.
func (t *Tool) Registry() *topics.Registry {
	return t.registry
}

func (t *Tool) Metrics() *Metrics {
	return t.metrics
}

// Close disables discovery and releases every component. It is safe to call
// more than once.
func (t *Tool) Close() error {
	t.closeOnce.Do(func() {
		if t.watcher != nil {
			t.watcher.Stop()
		}
		if t.simulator != nil {
			t.simulator.Stop()
		}
		if t.lifecycle != nil {
			if err := t.lifecycle.Disable(); err != nil {
				t.closeErr = fmt.Errorf("disable pipeline: %w", err)
			}
		}
		if t.bus != nil {
			if err := t.bus.Close(); err != nil && t.closeErr == nil {
				t.closeErr = fmt.Errorf("close bus: %w", err)
			}
		}
		if t.shutdownTracing != nil {
			t.shutdownTracing()
		}
		t.logger.Info("Spy stopped")
	})
	return t.closeErr
}

func allowedTopics(cfg *config.Config) *pipeline.AllowedTopicList {
	return pipeline.NewAllowedTopicList(filters(cfg.Allowlist), filters(cfg.Blocklist))
}

func filters(in []config.TopicFilter) []pipeline.Filter {
	out := make([]pipeline.Filter, 0, len(in))
	for _, f := range in {
		out = append(out, pipeline.Filter{Name: f.Name, Type: f.Type})
	}
	return out
}

func simulatedTopics(cfg *config.Config) []pipeline.SimulatedTopic {
	out := make([]pipeline.SimulatedTopic, 0, len(cfg.Simulation.Topics))
	for _, st := range cfg.Simulation.Topics {
		out = append(out, pipeline.SimulatedTopic{
			Name:     st.Name,
			TypeName: st.Type,
			QoS: topics.QoS{
				Reliable:   st.Reliable,
				Keyed:      st.Keyed,
				Partitions: st.Partitions,
			},
			AnnounceType: !st.HideType,
		})
	}
	return out
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
