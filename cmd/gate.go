package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Gate is the manual phase synchronizer: it blocks on a read-line from the
// operator, not on any automated health check.
type Gate struct {
	in    *bufio.Reader
	out   io.Writer
	once  sync.Once
	lines chan error
}

func NewGate(in io.Reader, out io.Writer) *Gate {
	return &Gate{in: bufio.NewReader(in), out: out, lines: make(chan error)}
}

// Wait blocks until the operator confirms with ENTER, the input closes, or
// ctx is cancelled. A cancelled Wait leaves the pending line buffered in the
// single reader goroutine; the next Wait consumes it.
func (g *Gate) Wait(ctx context.Context, prompt string) error {
	_, _ = fmt.Fprint(g.out, prompt)
	g.once.Do(func() { go g.readLines() })
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-g.lines:
		if !ok {
			// Input closed: counts as confirmation so the demo can be
			// driven non-interactively from a pipe.
			return nil
		}
		return err
	}
}

// readLines is the only reader of g.in for the Gate's lifetime, so a Wait
// abandoned by ctx cancellation never races a later one for the buffer.
func (g *Gate) readLines() {
	for {
		_, err := g.in.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				g.lines <- err
			}
			close(g.lines)
			return
		}
		g.lines <- nil
	}
}
