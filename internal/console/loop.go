package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nfrund/netspy/internal/topics"
	"github.com/nfrund/netspy/internal/visualizer"
)

// Prompt is printed before every command is read.
const Prompt = "Insert a command for netspy:"

// Registry is the topic lookup the loop needs.
type Registry interface {
	Find(name string) (topics.Descriptor, bool)
}

// Lister prints the discovered entities.
type Lister interface {
	PrintParticipants(w io.Writer)
	PrintDataReaders(w io.Writer)
	PrintDataWriters(w io.Writer)
	PrintTopics(w io.Writer)
}

// Session starts and stops printing a topic.
type Session interface {
	Activate(d topics.Descriptor) error
	Deactivate()
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for diagnostics. Operator output never
// goes through it.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop is the interactive command loop. It runs on one goroutine and is the
// only caller of the session.
type Loop struct {
	reader   *Reader
	out      io.Writer
	registry Registry
	lister   Lister
	session  Session
	logger   *slog.Logger
}

// NewLoop creates a loop reading from reader and writing to out.
func NewLoop(reader *Reader, out io.Writer, registry Registry, lister Lister, session Session, opts ...Option) *Loop {
	l := &Loop{
		reader:   reader,
		out:      out,
		registry: registry,
		lister:   lister,
		session:  session,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "console")
	return l
}

// Run prompts for and executes commands until exit, end of input, or ctx is
// done. Rejected commands are reported on the output and do not end the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		fmt.Fprintln(l.out, Prompt)

		cmd, err := l.reader.ReadNext(ctx)
		if errors.Is(err, io.EOF) {
			l.logger.Debug("Input closed")
			return nil
		}
		if err != nil {
			return err
		}
		if cmd.Value == CommandExit {
			return nil
		}

		if err := l.Dispatch(ctx, cmd); err != nil {
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) {
				return err
			}
			fmt.Fprintf(l.out, "! %s\n", cmdErr.Error())
		}
	}
}

// Dispatch executes one command. Rejections are returned as *CommandError.
func (l *Loop) Dispatch(ctx context.Context, cmd Command) error {
	l.logger.Debug("Dispatching command", "command", cmd.Value, "arguments", cmd.Arguments)

	switch cmd.Value {
	case CommandParticipant:
		l.lister.PrintParticipants(l.out)
	case CommandDataReader:
		l.lister.PrintDataReaders(l.out)
	case CommandDataWriter:
		l.lister.PrintDataWriters(l.out)
	case CommandTopic:
		l.lister.PrintTopics(l.out)
	case CommandPrint:
		return l.printTopic(ctx, cmd)
	case CommandHelp:
		writeHelp(l.out, l.reader.grammar)
	case CommandExit:
		// Run stops before dispatching exit.
	default:
		return &CommandError{Kind: ErrorUnknownCommand, Command: cmd.Token()}
	}
	return nil
}

func (l *Loop) printTopic(ctx context.Context, cmd Command) error {
	if len(cmd.Arguments) != 2 {
		return &CommandError{Kind: ErrorArity, Command: cmd.Token()}
	}
	name := cmd.Arguments[1]

	topic, found := l.registry.Find(name)
	if !found {
		return &CommandError{Kind: ErrorTopicNotFound, Command: cmd.Token(), Topic: name}
	}

	if err := l.session.Activate(topic); err != nil {
		kind := ErrorActivationFailed
		if errors.Is(err, visualizer.ErrTypeUnknown) {
			kind = ErrorTypeUnknown
		}
		return &CommandError{Kind: kind, Command: cmd.Token(), Topic: name, Type: topic.TypeName, Cause: err}
	}
	defer l.session.Deactivate()

	fmt.Fprintf(l.out, "Printing data for topic <%s>. Press enter to stop.\n", name)

	// Whatever is typed only ends the printing; it is not executed.
	if _, err := l.reader.ReadNext(ctx); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
