package console_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/netspy/internal/console"
	"github.com/nfrund/netspy/internal/topics"
	"github.com/nfrund/netspy/internal/visualizer"
)

type fakeRegistry map[string]topics.Descriptor

func (r fakeRegistry) Find(name string) (topics.Descriptor, bool) {
	d, ok := r[name]
	return d, ok
}

// fakeVisualizer records calls; it backs both the lister and a real session.
type fakeVisualizer struct {
	mu           sync.Mutex
	knownTypes   map[string]bool
	failActivate bool
	calls        []string
}

func (f *fakeVisualizer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeVisualizer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeVisualizer) TypeDiscovered(d topics.Descriptor) bool { return f.knownTypes[d.TypeName] }

func (f *fakeVisualizer) Activate(d topics.Descriptor) bool {
	if f.failActivate {
		return false
	}
	f.record("activate " + d.Name)
	return true
}

func (f *fakeVisualizer) Deactivate() { f.record("deactivate") }

func (f *fakeVisualizer) PrintParticipants(w io.Writer) { io.WriteString(w, "participants table\n") }
func (f *fakeVisualizer) PrintDataReaders(w io.Writer)  { io.WriteString(w, "readers table\n") }
func (f *fakeVisualizer) PrintDataWriters(w io.Writer)  { io.WriteString(w, "writers table\n") }
func (f *fakeVisualizer) PrintTopics(w io.Writer)       { io.WriteString(w, "topics table\n") }

var (
	chatter = topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{})
	ghost   = topics.NewDescriptor("Ghost", "ghost_msgs::Boo", topics.QoS{})
)

type harness struct {
	loop    *console.Loop
	vis     *fakeVisualizer
	session *visualizer.Session
	out     *bytes.Buffer
}

func newHarness(input io.Reader) *harness {
	vis := &fakeVisualizer{knownTypes: map[string]bool{"std_msgs::String": true}}
	session := visualizer.NewSession(vis, nil)
	out := &bytes.Buffer{}
	registry := fakeRegistry{"Chatter": chatter, "Ghost": ghost}
	loop := console.NewLoop(console.NewReader(input, nil), out, registry, vis, session)
	return &harness{loop: loop, vis: vis, session: session, out: out}
}

func (h *harness) lines() []string {
	return strings.Split(strings.TrimRight(h.out.String(), "\n"), "\n")
}

func TestLoop_RejectionsPrintOneLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Unknown Command", "frobnicate\n", "! Command <frobnicate> not supported."},
		{"Print Without Topic", "print\n", "! Command <print> requires exactly one argument."},
		{"Print With Two Topics", "print Chatter Ghost\n", "! Command <print> requires exactly one argument."},
		{"Topic Not Found", "print Square\n", "! Topic <Square> is not in the network."},
		{"Type Unknown", "print Ghost\n", "! Type <ghost_msgs::Boo> is not discovered."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(strings.NewReader(tt.input + "exit\n"))

			require.NoError(t, h.loop.Run(context.Background()))

			assert.Equal(t, []string{console.Prompt, tt.want, console.Prompt}, h.lines())
			assert.Equal(t, visualizer.StateIdle, h.session.State())
			assert.Empty(t, h.vis.Calls(), "Rejected commands must not touch the visualizer")
		})
	}
}

func TestLoop_ActivationFailed(t *testing.T) {
	h := newHarness(strings.NewReader("print Chatter\nexit\n"))
	h.vis.failActivate = true

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Contains(t, h.lines(), "! Error printing Type <std_msgs::String>.")
	assert.Equal(t, visualizer.StateIdle, h.session.State())
}

func TestLoop_PrintIdleActiveIdle(t *testing.T) {
	h := newHarness(strings.NewReader("print Chatter\nanything\nexit\n"))

	require.NoError(t, h.loop.Run(context.Background()))

	assert.Equal(t, []string{
		console.Prompt,
		"Printing data for topic <Chatter>. Press enter to stop.",
		console.Prompt,
	}, h.lines())
	assert.Equal(t, []string{"activate Chatter", "deactivate"}, h.vis.Calls())
	assert.Equal(t, visualizer.StateIdle, h.session.State())
}

func TestLoop_PrintBlocksUntilInput(t *testing.T) {
	pr, pw := io.Pipe()
	h := newHarness(pr)

	done := make(chan error, 1)
	go func() { done <- h.loop.Run(context.Background()) }()

	_, err := io.WriteString(pw, "print Chatter\n")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(h.vis.Calls()) == 1
	}, time.Second, 5*time.Millisecond)

	select {
	case <-done:
		t.Fatal("loop returned while printing")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, []string{"activate Chatter"}, h.vis.Calls())

	_, err = io.WriteString(pw, "\n")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(h.vis.Calls()) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, pw.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not end at end of input")
	}
}

func TestLoop_ListingsAndHelp(t *testing.T) {
	h := newHarness(strings.NewReader("participants\ndatareader\ndatawriters\ntopic\nman\nq\n"))

	require.NoError(t, h.loop.Run(context.Background()))

	out := h.out.String()
	for _, want := range []string{"participants table", "readers table", "writers table", "topics table"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "print <topic>")
	assert.Regexp(t, `exit\s+quit, q, <enter>`, out)
	assert.Regexp(t, `help\s+man, h`, out)
	assert.NotContains(t, out, "! ")
}

func TestLoop_LongLineIsRejectedAndLoopContinues(t *testing.T) {
	long := strings.Repeat("y", 70<<10)
	h := newHarness(strings.NewReader(long + "\nhelp\nexit\n"))

	require.NoError(t, h.loop.Run(context.Background()))

	out := h.out.String()
	assert.Equal(t, 3, strings.Count(out, console.Prompt))
	assert.Contains(t, out, "! Command <"+long+"> not supported.")
	assert.Contains(t, out, "print <topic>", "help runs after the long line")
}

func TestLoop_EndOfInputExits(t *testing.T) {
	h := newHarness(strings.NewReader("topics\n"))

	require.NoError(t, h.loop.Run(context.Background()))
	assert.Equal(t, []string{console.Prompt, "topics table", console.Prompt}, h.lines())
}

func TestLoop_EndOfInputWhilePrinting(t *testing.T) {
	h := newHarness(strings.NewReader("print Chatter\n"))

	require.NoError(t, h.loop.Run(context.Background()))
	assert.Equal(t, []string{"activate Chatter", "deactivate"}, h.vis.Calls())
}

func TestLoop_CanceledWhilePrinting(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := newHarness(pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.loop.Run(ctx) }()

	_, err := io.WriteString(pw, "print Chatter\n")
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(h.vis.Calls()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop ignored cancellation")
	}
	assert.Equal(t, []string{"activate Chatter", "deactivate"}, h.vis.Calls())
}

func TestLoop_DispatchReturnsTypedErrors(t *testing.T) {
	h := newHarness(strings.NewReader(""))
	g := console.DefaultGrammar()

	tests := []struct {
		line string
		kind console.ErrorKind
	}{
		{"nope", console.ErrorUnknownCommand},
		{"print", console.ErrorArity},
		{"print Square", console.ErrorTopicNotFound},
		{"print Ghost", console.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := h.loop.Dispatch(context.Background(), console.Parse(g, tt.line))

			var cmdErr *console.CommandError
			require.True(t, errors.As(err, &cmdErr))
			assert.Equal(t, tt.kind, cmdErr.Kind)
		})
	}

	err := h.loop.Dispatch(context.Background(), console.Parse(g, "print Ghost"))
	assert.ErrorIs(t, err, visualizer.ErrTypeUnknown, "The session error stays reachable")
}
