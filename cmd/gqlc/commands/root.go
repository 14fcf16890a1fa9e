// Package commands implements the CLI commands for gqlc.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/huykn/gqlcache"
	"github.com/huykn/gqlcache/runtimeconfig"
)

// CLI represents the command line interface for gqlc.
type CLI struct {
	rootCmd *cobra.Command
}

// New creates a new CLI instance.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "gqlc",
		Short:         "Inspect and run GraphQL documents through the gqlcache client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       gqlcache.Version,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := runtimeconfig.FromEnv()
			if err != nil {
				return err
			}
			runtimeconfig.Init(cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Log client internals to stderr")

	c := &CLI{rootCmd: rootCmd}

	rootCmd.AddCommand(c.newRouteCmd())
	rootCmd.AddCommand(c.newQueryCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}
