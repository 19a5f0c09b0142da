package echosrv

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/networking/echo"
	"github.com/0xa1bed0/echosrv/internal/networking/transport"
	"github.com/0xa1bed0/echosrv/internal/runtime"
	"github.com/0xa1bed0/echosrv/internal/ui"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr          string
	queueCapacity int
	maxLineLength int
	printMessages bool
	logFile       string
	reusePort     bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the echo server until interrupted",
		Long: `Run the echo server in the foreground.

The server accepts any number of clients and echoes every line back to the
client that sent it. It stops accepting on SIGINT or SIGTERM. Connections that
are already open are not waited for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmdRunE(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr(), "address to listen on (env "+addrEnv+")")
	cmd.Flags().IntVar(&opts.queueCapacity, "queue-capacity", echo.DefaultQueueCapacity, "how many observed lines to keep before dropping new ones")
	cmd.Flags().IntVar(&opts.maxLineLength, "max-line-length", echo.DefaultMaxLineLength, "disconnect clients that send a longer line")
	cmd.Flags().BoolVar(&opts.printMessages, "print-messages", false, "log every observed line")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "also write the full debug log to this file")
	cmd.Flags().BoolVar(&opts.reusePort, "reuse-port", false, "set SO_REUSEPORT so several servers can share the address")

	return cmd
}

func serveCmdRunE(cmd *cobra.Command, opts *serveOptions) error {
	rt := runtime.FromContextOrPanic(cmd.Context())

	if opts.logFile != "" {
		w, err := ui.OpenLogFile(opts.logFile)
		if err != nil {
			return err
		}
		logs.SetFullLogWriter(w)
	}

	handle, err := startServer(rt, opts)
	if err != nil {
		return err
	}

	rt.OnShutdown(func(ctx context.Context) {
		if err := handle.Shutdown(ctx); err != nil {
			logs.Errorf("echo server shutdown: %v", err)
			return
		}
		s := handle.Stats()
		logs.Infof("echo server stopped: accepted=%d active=%d received=%d dropped=%d",
			s.Accepted, s.Active, s.Received, s.Dropped)
	})

	if opts.printMessages {
		rt.GoErr("print-messages", func(ctx context.Context) error {
			return printMessages(ctx, handle)
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", handle.LocalAddr())

	<-rt.Ctx().Done()
	return nil
}

func startServer(rt *runtime.Runtime, opts *serveOptions) (*echo.ServerHandle, error) {
	var listenOpts []transport.ListenOption
	if opts.reusePort {
		listenOpts = append(listenOpts, transport.WithReusePort())
	}

	server, err := echo.Bind(rt.Ctx(), opts.addr, listenOpts...)
	if err != nil {
		return nil, err
	}

	server.
		WithSpawner(rt.GoNamed).
		WithQueueCapacity(opts.queueCapacity).
		WithMaxLineLength(opts.maxLineLength).
		WithHookFunc(func(peer, line string) {
			logs.Debugf("%s -> %q", peer, line)
		})

	return server.Run()
}

// printMessages drains the observation queue until ctx is done or every
// connection is gone. Both are normal ends.
func printMessages(ctx context.Context, handle *echo.ServerHandle) error {
	for {
		line, err := handle.AwaitMessage(ctx, 0)
		switch {
		case err == nil:
			logs.Infof("observed %q", line)
		case errors.Is(err, echo.ErrQueueClosed), ctx.Err() != nil:
			logs.Debugf("message printer stopped: %v", err)
			return nil
		default:
			return err
		}
	}
}
