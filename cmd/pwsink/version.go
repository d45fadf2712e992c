package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/micro-nova/pwsink-go/internal/identity"
)

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pwsink %s\n", identity.Version())
			return err
		},
	}
}
