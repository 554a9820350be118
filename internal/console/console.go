// Package console is the terminal front end: a prompt loop that forwards
// lines to the responder under a fixed conversation key.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kinechobot/kinecho/internal/engine"
)

// ConversationKey groups all console turns under one conversation.
const ConversationKey = "console"

type Console struct {
	responder engine.Responder
	in        io.Reader
	out       io.Writer
}

type Option func(*Console)

// WithInput overrides stdin, for tests.
func WithInput(r io.Reader) Option { return func(c *Console) { c.in = r } }

// WithOutput overrides stdout, for tests.
func WithOutput(w io.Writer) Option { return func(c *Console) { c.out = w } }

func New(r engine.Responder, opts ...Option) *Console {
	c := &Console{responder: r, in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads lines until EOF, "quit", or ctx cancellation. Each line becomes
// one exchange; API failures surface as the generic failure reply.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(c.out, "Kinecho is listening. Type 'quit' to exit.")
	for {
		fmt.Fprint(c.out, "You: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case line, ok = <-lines:
			if !ok {
				if err := scanner.Err(); err != nil {
					return err
				}
				return nil
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			fmt.Fprintln(c.out, "Bye!")
			return nil
		}

		reply, err := c.responder.Respond(ctx, ConversationKey, line)
		if err != nil {
			log.Debug().Err(err).Msg("console exchange failed")
			reply = engine.FailureReply
		}
		fmt.Fprintf(c.out, "Kinecho: %s\n", reply)
	}
}
