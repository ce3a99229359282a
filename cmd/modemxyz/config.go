package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jquast/modem.xyz/internal/appconfig"
)

func newConfigCmd() *cobra.Command {
	var force bool
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				defaultPath, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}
			written, err := appconfig.WriteDefault(target, force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), written)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	cmd.Flags().StringVarP(&path, "path", "p", "", "config file destination")
	return cmd
}
