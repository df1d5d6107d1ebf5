// Package interactive is the terminal front end: a read-eval loop that
// feeds user messages into a session and prints the replies.
package interactive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/kestrelworks/skybridge/agent"
	"github.com/kestrelworks/skybridge/config"
)

// Interactive drives a session from a line-based input stream
type Interactive struct {
	cfg     *config.Config
	session *agent.Session
	reader  *bufio.Reader
	out     io.Writer
	logger  zerolog.Logger

	mu         sync.Mutex
	cancelTurn context.CancelFunc
}

// New builds a front end over stdin/stdout
func New(cfg *config.Config, session *agent.Session, logger zerolog.Logger) *Interactive {
	return NewWithIO(cfg, session, os.Stdin, os.Stdout, logger)
}

// NewWithIO builds a front end over explicit streams
func NewWithIO(cfg *config.Config, session *agent.Session, in io.Reader, out io.Writer, logger zerolog.Logger) *Interactive {
	return &Interactive{
		cfg:     cfg,
		session: session,
		reader:  bufio.NewReader(in),
		out:     out,
		logger:  logger.With().Str("component", "interactive").Logger(),
	}
}

// Run reads messages until an exit command or end of input. Ctrl-C
// during a turn cancels that turn and returns to the prompt; Ctrl-C at
// the prompt exits.
func (i *Interactive) Run(ctx context.Context) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)
	go i.watchInterrupts(interrupts)

	i.banner()

	for {
		fmt.Fprint(i.out, "\nEnter your message: ")

		input, err := i.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(i.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if agent.IsExitCommand(input) {
			fmt.Fprintln(i.out, "Goodbye!")
			return nil
		}

		reply, err := i.respond(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(i.out, "\n(turn canceled)")
				continue
			}
			i.logger.Debug().Err(err).Msg("turn failed")
			fmt.Fprintf(i.out, "\nError: %v\n", err)
			continue
		}

		if reply == "" {
			fmt.Fprintln(i.out, "\nNo response received.")
			continue
		}

		fmt.Fprintf(i.out, "\n%s\n", reply)
	}
}

// respond runs one turn under a cancel function the interrupt watcher
// can reach
func (i *Interactive) respond(ctx context.Context, input string) (string, error) {
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	i.mu.Lock()
	i.cancelTurn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.cancelTurn = nil
		i.mu.Unlock()
	}()

	return i.session.Respond(turnCtx, input)
}

func (i *Interactive) watchInterrupts(interrupts <-chan os.Signal) {
	for range interrupts {
		i.mu.Lock()
		cancel := i.cancelTurn
		i.mu.Unlock()

		if cancel != nil {
			cancel()
			continue
		}

		fmt.Fprintln(i.out, "\nGoodbye!")
		i.session.Close()
		os.Exit(0)
	}
}

func (i *Interactive) banner() {
	fmt.Fprintln(i.out, "\n=== Skybridge Chat Ready ===")
	fmt.Fprintln(i.out, "Type 'exit', 'quit' or 'bye' to leave")

	switch i.cfg.Chat.Provider {
	case "azure":
		fmt.Fprintln(i.out, "Provider: azure")
		fmt.Fprintln(i.out, "Deployment:", i.cfg.Azure.Deployment)
	default:
		fmt.Fprintln(i.out, "Provider:", i.cfg.Chat.Provider)
		fmt.Fprintln(i.out, "Model:", i.cfg.Chat.Model)
		fmt.Fprintln(i.out, "Endpoint:", i.cfg.Chat.Endpoint)
	}

	fmt.Fprintf(i.out, "Tools: %d available\n", len(i.session.Tools()))
	fmt.Fprintln(i.out, "============================")
}
