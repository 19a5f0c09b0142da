package echosrv

import (
	"os"

	"github.com/0xa1bed0/echosrv/internal/logs"
	"github.com/0xa1bed0/echosrv/internal/runtime"
	"github.com/spf13/cobra"
)

const (
	addrEnv      = "ECHOSRV_ADDR"
	fallbackAddr = "127.0.0.1:7878"
)

var verbosity int

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echosrv",
		Short: "Line-oriented TCP echo server and client",
		Long: `echosrv runs a concurrent TCP echo server and a matching client.

Every newline-terminated line a client sends is written back to it unchanged.
The server additionally records each line it sees so it can be printed or
inspected while the server runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logs.SetDebugVerbosity(verbosity)
			return nil
		},
		// we will handle that
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity level")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func Execute(rt *runtime.Runtime) error {
	return newRootCmd().ExecuteContext(rt.Ctx())
}

// defaultAddr is the address used when --addr is not given.
func defaultAddr() string {
	if addr := os.Getenv(addrEnv); addr != "" {
		return addr
	}
	return fallbackAddr
}
