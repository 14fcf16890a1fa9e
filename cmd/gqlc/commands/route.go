package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/huykn/gqlcache/document"
	"github.com/huykn/gqlcache/transport"
)

func (c *CLI) newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <file>",
		Short: "Print the transport a document is routed to (graphql or rest)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := document.Parse(string(src))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), transport.RouteOf(doc))
			return nil
		},
	}
}
