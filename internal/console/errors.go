package console

import "fmt"

// ErrorKind classifies rejected commands.
type ErrorKind string

const (
	ErrorUnknownCommand   ErrorKind = "unknown_command"
	ErrorArity            ErrorKind = "arity"
	ErrorTopicNotFound    ErrorKind = "topic_not_found"
	ErrorTypeUnknown      ErrorKind = "type_unknown"
	ErrorActivationFailed ErrorKind = "activation_failed"
)

// CommandError is a rejected command. Its message is the line shown to the
// operator.
type CommandError struct {
	Kind    ErrorKind
	Command string
	Topic   string
	Type    string
	Cause   error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case ErrorUnknownCommand:
		return fmt.Sprintf("Command <%s> not supported.", e.Command)
	case ErrorArity:
		return fmt.Sprintf("Command <%s> requires exactly one argument.", e.Command)
	case ErrorTopicNotFound:
		return fmt.Sprintf("Topic <%s> is not in the network.", e.Topic)
	case ErrorTypeUnknown:
		return fmt.Sprintf("Type <%s> is not discovered.", e.Type)
	case ErrorActivationFailed:
		return fmt.Sprintf("Error printing Type <%s>.", e.Type)
	default:
		return fmt.Sprintf("Command <%s> failed.", e.Command)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}
