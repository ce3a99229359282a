package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jquast/modem.xyz/internal/appconfig"
	"github.com/jquast/modem.xyz/internal/helper"
	"github.com/jquast/modem.xyz/schema"
	"pkt.systems/pslog"
)

func newHelperCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:    "helper <data-pipe> <ready-pipe> <title>",
		Short:  "Run the terminal-resident capture helper",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return fmt.Errorf("%w: helper requires a data pipe, a ready pipe, and a window title", schema.ErrUsage)
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			h := helper.New(helper.Config{
				DataPipe:     args[0],
				ReadyPipe:    args[1],
				Title:        args[2],
				SettleWindow: time.Duration(cfg.Helper.SettleWindowMS) * time.Millisecond,
				MaxDrain:     time.Duration(cfg.Helper.MaxDrainMS) * time.Millisecond,
				Log:          pslog.Ctx(cmd.Context()),
			})
			return h.Run()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
