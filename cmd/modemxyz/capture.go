package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	modemxyz "github.com/jquast/modem.xyz"
	"github.com/jquast/modem.xyz/core"
	"github.com/jquast/modem.xyz/internal/appconfig"
	"github.com/jquast/modem.xyz/internal/eventbus"
	"github.com/jquast/modem.xyz/schema"
	"pkt.systems/pslog"
)

func newCaptureCmd() *cobra.Command {
	var cfgPath string
	var outputDir string
	var manifestPath string
	var run string
	var encoding string
	cmd := &cobra.Command{
		Use:   "capture <banner-file>...",
		Short: "Capture banner files through live terminal sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: capture requires at least one banner file", schema.ErrUsage)
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}

			requests := make([]schema.CaptureRequest, 0, len(args))
			for _, path := range args {
				payload, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				requests = append(requests, schema.CaptureRequest{
					Name:       name,
					Payload:    schema.BannerPayload(payload),
					Encoding:   schema.EncodingName(encoding),
					OutputPath: filepath.Join(outputDir, name+".png"),
				})
			}

			bus := eventbus.New(pslog.Ctx(cmd.Context()))
			events, cancel := bus.Subscribe()
			defer cancel()
			go func() {
				for event := range events {
					line := fmt.Sprintf("%s %s", event.Type, event.Banner)
					if event.Reason != "" {
						line += " (" + event.Reason + ")"
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}()

			pipeline, err := modemxyz.NewPipeline(cmd.Context(), cfg, modemxyz.PipelineOptions{
				Run:   run,
				Sinks: []core.EventSink{bus},
			})
			if err != nil {
				return err
			}
			defer pipeline.Close(cmd.Context())

			manifest, err := pipeline.CaptureAll(cmd.Context(), requests)
			if err != nil {
				return err
			}
			if manifestPath == "" {
				manifestPath = filepath.Join(outputDir, "manifest.yaml")
			}
			if err := modemxyz.WriteManifest(manifestPath, manifest); err != nil {
				return err
			}
			if len(manifest.Failures) > 0 {
				return fmt.Errorf("%d of %d banners failed, see %s",
					len(manifest.Failures), len(manifest.Results), manifestPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for captured PNGs")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path for the run manifest")
	cmd.Flags().StringVar(&run, "run", "", "run label for resume state")
	cmd.Flags().StringVar(&encoding, "encoding", "", "server encoding of the banner files")
	return cmd
}
