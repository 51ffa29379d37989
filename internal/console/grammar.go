package console

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// CommandValue identifies a command independently of the alias typed.
type CommandValue int

const (
	CommandUnknown CommandValue = iota
	CommandParticipant
	CommandDataReader
	CommandDataWriter
	CommandTopic
	CommandPrint
	CommandExit
	CommandHelp
)

func (v CommandValue) String() string {
	if name := DefaultGrammar().Name(v); name != "" {
		return name
	}
	return "unknown"
}

// Entry declares one command of a grammar.
type Entry struct {
	Value CommandValue
	// Aliases are matched case-sensitively. The first alias is the
	// canonical name.
	Aliases []string
	Args    string
	Usage   string
}

// Grammar maps typed tokens to commands and back.
type Grammar struct {
	entries []Entry
	byValue map[CommandValue]Entry
	byAlias map[string]CommandValue
}

// NewGrammar builds a grammar. Every entry needs at least one alias and no
// alias may belong to two commands.
func NewGrammar(entries []Entry) (*Grammar, error) {
	g := &Grammar{
		byValue: make(map[CommandValue]Entry, len(entries)),
		byAlias: make(map[string]CommandValue),
	}
	for _, e := range entries {
		if e.Value == CommandUnknown {
			return nil, errors.New("the unknown command cannot be declared")
		}
		if len(e.Aliases) == 0 {
			return nil, fmt.Errorf("command %d has no aliases", int(e.Value))
		}
		if _, dup := g.byValue[e.Value]; dup {
			return nil, fmt.Errorf("command %q declared twice", e.Aliases[0])
		}
		for _, alias := range e.Aliases {
			if other, dup := g.byAlias[alias]; dup {
				return nil, fmt.Errorf("alias %q used by %q and %q", alias, g.byValue[other].Aliases[0], e.Aliases[0])
			}
			g.byAlias[alias] = e.Value
		}
		e.Aliases = slices.Clone(e.Aliases)
		g.byValue[e.Value] = e
		g.entries = append(g.entries, e)
	}
	return g, nil
}

var defaultEntries = []Entry{
	{Value: CommandParticipant, Aliases: []string{"participant", "participants"}, Usage: "List the participants in the network."},
	{Value: CommandDataWriter, Aliases: []string{"datawriter", "datawriters"}, Usage: "List the data writers in the network."},
	{Value: CommandDataReader, Aliases: []string{"datareader", "datareaders"}, Usage: "List the data readers in the network."},
	{Value: CommandTopic, Aliases: []string{"topic", "topics"}, Usage: "List the topics in the network."},
	{Value: CommandPrint, Aliases: []string{"print"}, Args: "<topic>", Usage: "Print the samples of a topic until enter is pressed."},
	{Value: CommandExit, Aliases: []string{"exit", "quit", "q", ""}, Usage: "Close the application."},
	{Value: CommandHelp, Aliases: []string{"help", "man", "h"}, Usage: "Show this help."},
}

// DefaultGrammar returns the netspy command set.
var DefaultGrammar = sync.OnceValue(func() *Grammar {
	g, err := NewGrammar(defaultEntries)
	if err != nil {
		panic(err)
	}
	return g
})

// Resolve returns the command an alias names, or CommandUnknown.
func (g *Grammar) Resolve(token string) CommandValue {
	if v, ok := g.byAlias[token]; ok {
		return v
	}
	return CommandUnknown
}

// Name returns the canonical name of v, or "" if v is not declared.
func (g *Grammar) Name(v CommandValue) string {
	if e, ok := g.byValue[v]; ok {
		return e.Aliases[0]
	}
	return ""
}

// Aliases returns every alias of v.
func (g *Grammar) Aliases(v CommandValue) []string {
	return slices.Clone(g.byValue[v].Aliases)
}

// Entries returns the declared commands in declaration order.
func (g *Grammar) Entries() []Entry {
	out := make([]Entry, len(g.entries))
	for i, e := range g.entries {
		e.Aliases = slices.Clone(e.Aliases)
		out[i] = e
	}
	return out
}
