package echosrv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/networking/echo"
	"github.com/moby/term"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errNothingToSend = errors.New("no messages to send")

type sendOptions struct {
	addr    string
	timeout time.Duration
	clients int
}

func newSendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send [MESSAGE...]",
		Short: "Send messages to an echo server and check the echoes",
		Long: `Send each MESSAGE as one line and wait for it to come back.

Without arguments, messages are read from stdin one per line. When stdin is
a terminal you are prompted for messages until you enter an empty line.

With --clients N the same messages are sent by N clients at once, each on its
own connection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			messages := args
			if len(messages) == 0 {
				var err error
				messages, err = readMessages(os.Stdin)
				if err != nil {
					return err
				}
			}
			if len(messages) == 0 {
				return errNothingToSend
			}
			return sendMessages(cmd.Context(), cmd.OutOrStdout(), opts, messages)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr(), "server address (env "+addrEnv+")")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Second, "how long to wait for each echo, 0 waits forever")
	cmd.Flags().IntVar(&opts.clients, "clients", 1, "number of concurrent clients")

	return cmd
}

// readMessages prompts for messages on a terminal and reads lines otherwise.
func readMessages(in *os.File) ([]string, error) {
	if _, isTerm := term.GetFdInfo(in); isTerm {
		return promptMessages()
	}
	return readLines(in)
}

func promptMessages() ([]string, error) {
	var messages []string
	for {
		msg, err := logs.PromptInput("Message (empty line to send):")
		if err != nil {
			return nil, err
		}
		if msg == "" {
			return messages, nil
		}
		messages = append(messages, msg)
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return lines, nil
}

func sendMessages(ctx context.Context, out io.Writer, opts *sendOptions, messages []string) error {
	clients := opts.clients
	if clients < 1 {
		clients = 1
	}

	var outMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < clients; i++ {
		g.Go(func() error {
			client, err := echo.Connect(gctx, opts.addr)
			if err != nil {
				return err
			}
			defer client.Close()
			logs.Debugf("client %d connected from %s", i, client.LocalAddr())

			for _, msg := range messages {
				if err := client.SendAndAwait(gctx, msg, opts.timeout); err != nil {
					return fmt.Errorf("client %d: %w", i, err)
				}
				outMu.Lock()
				if clients > 1 {
					fmt.Fprintf(out, "[%d] %s\n", i, msg)
				} else {
					fmt.Fprintln(out, msg)
				}
				outMu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}
