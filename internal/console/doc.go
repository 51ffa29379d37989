// Package console implements the interactive command loop: reading lines,
// resolving them against the command grammar and dispatching them to the
// topic registry and the visualization session.
package console
