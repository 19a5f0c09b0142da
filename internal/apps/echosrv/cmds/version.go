package echosrv

import (
	"fmt"

	"github.com/0xa1bed0/echosrv/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of echosrv",
		Long:  `Display the current version of echosrv.`,
		Run: func(cmd *cobra.Command, args []string) {
			if version.IsPrerelease(version.Version) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (development build)\n", version.Get())
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.Get())
		},
	}

	return cmd
}
