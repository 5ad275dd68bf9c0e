package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/swish/internal/touch"
)

func newDevicesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List multitouch touchpads",
		Long: `List multitouch touchpads under /dev/input. Reading them usually requires
membership in the "input" group.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devs, err := touch.Discover()
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return printJSON(cmd.OutOrStdout(), devs)
			}
			for _, d := range devs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d slots\n", d.Path, d.Name, d.Slots)
			}
			return nil
		},
	}
}
