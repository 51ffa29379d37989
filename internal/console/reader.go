package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
)

// Reader turns lines of input into commands. ReadNext is the only way input
// is consumed, whether at the prompt or while a topic is printed.
type Reader struct {
	src     io.Reader
	grammar *Grammar

	once  sync.Once
	lines chan string
	err   error
}

// NewReader reads commands from src. Nothing is read before the first
// ReadNext call.
func NewReader(src io.Reader, g *Grammar) *Reader {
	if g == nil {
		g = DefaultGrammar()
	}
	return &Reader{src: src, grammar: g, lines: make(chan string)}
}

// ReadNext blocks until a line is entered or ctx is done. It returns io.EOF
// once the input is exhausted.
//
// Reading happens on a background goroutine; when ctx ends first, that
// goroutine stays blocked on the input until the next line or EOF.
func (r *Reader) ReadNext(ctx context.Context) (Command, error) {
	r.once.Do(func() { go r.scan() })

	select {
	case <-ctx.Done():
		return Command{}, ctx.Err()
	case line, ok := <-r.lines:
		if !ok {
			if r.err != nil {
				return Command{}, r.err
			}
			return Command{}, io.EOF
		}
		return Parse(r.grammar, line), nil
	}
}

// maxLineBytes caps a stored line; the rest of a longer line is discarded.
const maxLineBytes = 1 << 20

func (r *Reader) scan() {
	defer close(r.lines)

	br := bufio.NewReader(r.src)
	for {
		line, err := readLine(br)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return
		}
		r.lines <- line
	}
}

// readLine returns the next line without its line ending, whatever its length.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if len(buf) > 0 {
				return string(buf), nil
			}
			return "", err
		}
		if room := maxLineBytes - len(buf); room > 0 {
			buf = append(buf, chunk[:min(len(chunk), room)]...)
		}
		if !isPrefix {
			return string(buf), nil
		}
	}
}
