package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jquast/modem.xyz/internal/appconfig"
	"github.com/jquast/modem.xyz/internal/termlaunch"
	"github.com/jquast/modem.xyz/internal/xcapture"
	"github.com/jquast/modem.xyz/internal/xtool"
	"pkt.systems/pslog"
)

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check capture prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}
			logger.Info("doctor start", "config", configPath)

			var problems []string
			if err := xcapture.Available(); err != nil {
				problems = append(problems, err.Error())
			} else {
				logger.Info("doctor capture tools ok", "tools", strings.Join(xcapture.Required, " "))
			}

			launcher, err := termlaunch.ByName(cfg.Capture.Backend)
			if err != nil {
				problems = append(problems, err.Error())
			} else if !launcher.Available() {
				problems = append(problems, fmt.Sprintf("terminal backend %s not installed", launcher.Name()))
			} else {
				logger.Info("doctor terminal backend ok", "backend", launcher.Name())
			}

			if xtool.Available("Xvfb") {
				logger.Info("doctor virtual display ok")
			} else {
				logger.Warn("doctor Xvfb not installed, capture needs an existing DISPLAY")
			}

			if len(problems) > 0 {
				for _, problem := range problems {
					logger.Error("doctor check failed", "problem", problem)
				}
				return errors.New("doctor found missing prerequisites")
			}
			logger.Info("doctor complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
