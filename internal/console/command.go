package console

import "strings"

// Command is one parsed input line. Arguments[0] is always the token that
// selected the command, so "print Chatter" carries two arguments.
type Command struct {
	Value     CommandValue
	Arguments []string
}

// Parse splits line on whitespace and resolves its first token. A blank
// line resolves the empty token.
func Parse(g *Grammar, line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fields = []string{""}
	}
	return Command{Value: g.Resolve(fields[0]), Arguments: fields}
}

// Token returns the typed command token.
func (c Command) Token() string {
	if len(c.Arguments) == 0 {
		return ""
	}
	return c.Arguments[0]
}
