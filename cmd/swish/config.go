package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/swish/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the configuration file",
	}

	var defaults bool
	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if !defaults {
				res, err := root.loadConfig()
				if err != nil {
					return err
				}
				cfg = res.Config
				if res.Loaded {
					fmt.Fprintf(cmd.OutOrStdout(), "# file: %s\n", res.File)
				}
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	printCmd.Flags().BoolVar(&defaults, "defaults", false, "print built-in defaults without reading files or environment")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := root.loadConfig()
			if err != nil {
				return err
			}
			if res.Loaded {
				fmt.Fprintf(cmd.OutOrStdout(), "config: ok (%s)\n", res.File)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "config: ok (defaults)")
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault(root.configPath, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(printCmd, validateCmd, initCmd)
	return cmd
}
