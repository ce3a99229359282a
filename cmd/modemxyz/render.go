package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jquast/modem.xyz/internal/rasterize"
	"github.com/jquast/modem.xyz/schema"
	"pkt.systems/pslog"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <input> <output.png>",
		Short: "Rasterize an ANSI art file to PNG",
		Long: "Rasterize an ANSI art file to PNG without a terminal. Options come\n" +
			"from the environment: ANSIART_FONT, ANSIART_SCALE, ANSIART_BITS,\n" +
			"ANSIART_COLUMNS, ANSIART_MODE, ANSIART_ICECOLORS.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: render requires exactly an input path and an output path", schema.ErrUsage)
			}
			opts := rasterize.OptionsFromEnv()
			result, err := rasterize.RenderFile(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("rendered",
				"input", args[0],
				"output", args[1],
				"width", result.Width,
				"height", result.Height,
				"font", string(result.Font),
			)
			return nil
		},
	}
}
