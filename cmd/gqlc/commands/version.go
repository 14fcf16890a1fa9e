package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huykn/gqlcache"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			info := gqlcache.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "gqlc %s (%s)\n", info.Version, info.GoVersion)
		},
	}
}
