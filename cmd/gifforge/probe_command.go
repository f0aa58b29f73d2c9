package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calibancode/gifforge/internal/adapter/cache/jsonfile"
	"github.com/calibancode/gifforge/internal/adapter/probe/ffprobe"
	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
	"github.com/calibancode/gifforge/internal/port"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <input>",
		Short: "Inspect a video file's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			var probeCache port.ProbeCache
			if cache, err := jsonfile.New(cfg.DataDir); err != nil {
				logger.Warn.Printf("probe cache unavailable: %v", err)
			} else {
				probeCache = cache
			}

			prober := ffprobe.New(cfg.FFprobePath, probeCache)
			media, err := prober.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(media)
			}

			fmt.Printf("file:       %s\n", media.Path)
			fmt.Printf("container:  %s\n", media.FormatName)
			fmt.Printf("duration:   %s\n", domain.FormatDuration(media.Duration))
			fmt.Printf("dimensions: %dx%d\n", media.Width, media.Height)
			fmt.Printf("frame rate: %s\n", domain.FormatFrameRate(media.FrameRate))
			fmt.Printf("size:       %s\n", domain.FormatSize(media.SizeBytes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit raw JSON")
	return cmd
}
