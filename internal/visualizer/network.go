package visualizer

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/nfrund/netspy/internal/discovery"
	"github.com/nfrund/netspy/internal/topics"
)

// Network is the Visualizer backed by a discovery database and a data source.
type Network struct {
	db     *discovery.Database
	data   DataSource
	logger *slog.Logger

	mu     sync.Mutex
	out    io.Writer
	active string
	cancel context.CancelFunc
}

// NewNetwork creates a visualizer that prints samples to out.
func NewNetwork(db *discovery.Database, data DataSource, out io.Writer, logger *slog.Logger) *Network {
	if logger == nil {
		logger = slog.Default()
	}
	return &Network{
		db:     db,
		data:   data,
		out:    out,
		logger: logger.With("component", "visualizer"),
	}
}

// TypeDiscovered reports whether the topic's type has been announced.
func (n *Network) TypeDiscovered(d topics.Descriptor) bool {
	return n.db.HasType(d.TypeName)
}

// Activate starts printing the samples of d. It fails while another topic is
// printed or when the data subscription cannot be made.
func (n *Network) Activate(d topics.Descriptor) bool {
	n.mu.Lock()
	if n.cancel != nil {
		n.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.active = d.Name
	n.cancel = cancel
	n.mu.Unlock()

	// The lock is not held here: a sample handler may be waiting on it
	// while the data source holds its own.
	handler := func(s topics.Sample) { n.printSample(ctx, s) }
	if err := n.data.SubscribeData(ctx, d, handler); err != nil {
		n.logger.Warn("Failed to subscribe to topic data", "topic", d.Name, "error", err)
		n.Deactivate()
		return false
	}
	return true
}

// Deactivate stops printing. No sample is printed once it returns.
func (n *Network) Deactivate() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel == nil {
		return
	}
	n.cancel()
	n.cancel = nil
	n.active = ""
}

// printSample writes s unless the subscription that delivered it, identified
// by ctx, has been cancelled.
func (n *Network) printSample(ctx context.Context, s topics.Sample) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ctx.Err() != nil || s.Topic != n.active {
		return
	}
	fmt.Fprintf(n.out, "%s %s [%s] from %s: %s\n",
		s.Received.Format(time.TimeOnly), s.Topic, s.TypeName, s.Writer, formatPayload(s.Payload))
}

func formatPayload(payload []byte) string {
	if utf8.Valid(payload) {
		return string(payload)
	}
	return "0x" + hex.EncodeToString(payload)
}

// PrintParticipants writes a table of participants and their endpoint counts.
func (n *Network) PrintParticipants(w io.Writer) {
	participants := n.db.Participants()
	writers := countByParticipant(n.db.Endpoints(discovery.KindWriter))
	readers := countByParticipant(n.db.Endpoints(discovery.KindReader))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tGUID\tDOMAIN\tWRITERS\tREADERS")
	fmt.Fprintln(tw, "----\t----\t------\t-------\t-------")
	if len(participants) == 0 {
		fmt.Fprintln(tw, "No participants discovered")
		return
	}
	for _, p := range participants {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", p.Name, p.GUID, p.Domain, writers[p.GUID.String()], readers[p.GUID.String()])
	}
}

// PrintDataReaders writes a table of discovered readers.
func (n *Network) PrintDataReaders(w io.Writer) {
	n.printEndpoints(w, discovery.KindReader, "No data readers discovered")
}

// PrintDataWriters writes a table of discovered writers.
func (n *Network) PrintDataWriters(w io.Writer) {
	n.printEndpoints(w, discovery.KindWriter, "No data writers discovered")
}

func (n *Network) printEndpoints(w io.Writer, kind discovery.Kind, empty string) {
	endpoints := n.db.Endpoints(kind)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TOPIC\tTYPE\tGUID\tPARTICIPANT")
	fmt.Fprintln(tw, "-----\t----\t----\t-----------")
	if len(endpoints) == 0 {
		fmt.Fprintln(tw, empty)
		return
	}
	for _, e := range endpoints {
		participant := e.Participant.String()
		if p, ok := n.db.Participant(e.Participant); ok {
			participant = p.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Topic.Name, e.Topic.TypeName, e.GUID, participant)
	}
}

type topicSummary struct {
	typeName string
	writers  int
	readers  int
}

// PrintTopics writes a table of topics with their endpoint counts.
func (n *Network) PrintTopics(w io.Writer) {
	summaries := make(map[string]*topicSummary)
	for _, kind := range []discovery.Kind{discovery.KindWriter, discovery.KindReader} {
		for _, e := range n.db.Endpoints(kind) {
			s, ok := summaries[e.Topic.Name]
			if !ok {
				s = &topicSummary{typeName: e.Topic.TypeName}
				summaries[e.Topic.Name] = s
			}
			if kind == discovery.KindWriter {
				s.writers++
			} else {
				s.readers++
			}
		}
	}

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tTYPE\tWRITERS\tREADERS\tTYPE DISCOVERED")
	fmt.Fprintln(tw, "----\t----\t-------\t-------\t---------------")
	if len(names) == 0 {
		fmt.Fprintln(tw, "No topics discovered")
		return
	}
	for _, name := range names {
		s := summaries[name]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\n", name, s.typeName, s.writers, s.readers, n.db.HasType(s.typeName))
	}
}

func countByParticipant(endpoints []discovery.Endpoint) map[string]int {
	counts := make(map[string]int)
	for _, e := range endpoints {
		counts[e.Participant.String()]++
	}
	return counts
}
