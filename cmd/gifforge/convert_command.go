package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calibancode/gifforge/config"
	"github.com/calibancode/gifforge/internal/deps"
	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
	"github.com/calibancode/gifforge/internal/service"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		input       string
		output      string
		fps         int
		width       int
		height      int
		speed       float64
		palette     string
		dither      string
		quality     int
		compression int
		lossless    bool
		loop        bool
		noLoop      bool
	)

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Convert a video file to GIF or WebP",
		Long: `Convert a video file to an optimized GIF or animated WebP.

The output format follows the destination extension: .gif output runs a
single ffmpeg encoding pass followed by gifsicle optimization, .webp output
runs ffmpeg alone. Ctrl-C cancels the running conversion.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				input = args[0]
			}
			if input == "" {
				return errors.New("no input file (pass it as an argument or with --input)")
			}
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".gif"
			}
			format, err := domain.DetectOutputFormat(output)
			if err != nil {
				return err
			}

			params := cfg.Parameters()
			flags := cmd.Flags()
			if flags.Changed("fps") {
				if err := params.SetFPS(fps); err != nil {
					return err
				}
			}
			if flags.Changed("width") {
				if err := params.SetWidth(width); err != nil {
					return err
				}
			}
			if flags.Changed("height") {
				if err := params.SetHeight(height); err != nil {
					return err
				}
			}
			if flags.Changed("speed") {
				if err := params.SetSpeedMultiplier(speed); err != nil {
					return err
				}
			}
			if flags.Changed("palette") {
				if err := params.SetPaletteMode(palette); err != nil {
					return err
				}
			}
			if flags.Changed("dither") {
				if err := params.SetDither(dither); err != nil {
					return err
				}
			}
			if flags.Changed("quality") {
				if err := params.SetWebPQuality(quality); err != nil {
					return err
				}
			}
			if flags.Changed("compression") {
				if err := params.SetWebPCompression(compression); err != nil {
					return err
				}
			}
			if flags.Changed("loop") {
				params.Loop = loop
			}
			if noLoop {
				params.Loop = false
			}
			if err := params.SetFormat(format); err != nil {
				return err
			}
			if flags.Changed("webp-lossless") {
				if err := params.SetWebPLossless(lossless); err != nil {
					return err
				}
			}

			if err := checkTools(cfg, format); err != nil {
				return err
			}

			stack, cleanup, err := newServiceStack(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			job, err := stack.svc.StartConversion(cmd.Context(), input, output, params)
			if err != nil {
				return err
			}

			return followJob(stack, job, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Source video path")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (defaults to the input name with .gif)")
	cmd.Flags().IntVar(&fps, "fps", 0, "Output frame rate (0 keeps the source rate)")
	cmd.Flags().IntVar(&width, "width", 0, "Output width in pixels (0 derives from height)")
	cmd.Flags().IntVar(&height, "height", 0, "Output height in pixels (0 keeps the source size)")
	cmd.Flags().Float64Var(&speed, "speed", domain.DefaultSpeed, "Playback speed multiplier")
	cmd.Flags().StringVar(&palette, "palette", domain.DefaultPaletteMode, "GIF palette mode: "+strings.Join(domain.PaletteModes, ", "))
	cmd.Flags().StringVar(&dither, "dither", domain.DefaultDither, "GIF dither algorithm: "+strings.Join(domain.DitherAlgorithms, ", "))
	cmd.Flags().IntVar(&quality, "quality", domain.DefaultWebPQuality, "WebP quality (0-100)")
	cmd.Flags().IntVar(&compression, "compression", domain.DefaultWebPCompression, "WebP compression level (0-6)")
	cmd.Flags().BoolVar(&lossless, "webp-lossless", false, "Encode WebP losslessly (ignores quality)")
	cmd.Flags().BoolVar(&loop, "loop", true, "Loop the animation")
	cmd.Flags().BoolVar(&noLoop, "no-loop", false, "Play the animation once")
	cmd.MarkFlagsMutuallyExclusive("loop", "no-loop")

	return cmd
}

// checkTools fails fast when a binary the requested format needs is missing.
// Gifsicle is optional in general but mandatory for GIF output.
func checkTools(cfg *config.Config, format domain.OutputFormat) error {
	statuses := deps.Check(deps.Required(cfg.FFmpegPath, cfg.FFprobePath, cfg.GifsiclePath))
	missing := deps.MissingRequired(statuses)
	if format == domain.FormatGIF {
		for _, s := range statuses {
			if s.Name == "gifsicle" && !s.Available {
				missing = append(missing, s.Name)
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (see 'gifforge deps')", strings.Join(missing, ", "))
	}
	return nil
}

// followJob streams progress to the terminal until the job lands in a
// terminal state. SIGINT and SIGTERM cancel the job; the external process is
// confirmed gone before the command exits.
func followJob(stack *serviceStack, job *domain.ConversionJob, output string) error {
	ch := stack.bus.Subscribe(job.ID)
	defer stack.bus.Unsubscribe(job.ID, ch)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		_ = stack.svc.Wait(context.Background(), job.ID)
		close(done)
	}()

	tty := isTerminal(os.Stdout)
	for {
		select {
		case sig := <-sigCh:
			if tty {
				fmt.Println()
			}
			logger.Info.Printf("received %s, cancelling conversion", sig)
			_ = stack.svc.Cancel(job.ID)

		case event := <-ch:
			switch event.Type {
			case service.EventProgress:
				if tty {
					fmt.Printf("\r%3d%% %s\x1b[K", event.Percent, event.Message)
				}
			case service.EventLog:
				if event.Line != nil && event.Line.Stream == "stderr" {
					if tty {
						fmt.Println()
					}
					fmt.Fprintln(os.Stderr, event.Line.Text)
				}
			}

		case <-done:
			if tty {
				fmt.Println()
			}
			view := job.View()
			switch view.State {
			case domain.StateCompleted:
				if info, err := os.Stat(output); err == nil {
					fmt.Printf("wrote %s (%s, %d frames)\n", output, domain.FormatSize(info.Size()), view.Frames)
				} else {
					fmt.Printf("wrote %s (%d frames)\n", output, view.Frames)
				}
				return nil
			case domain.StateCancelled:
				return errors.New("conversion cancelled")
			default:
				return fmt.Errorf("conversion failed: %s", view.Cause)
			}
		}
	}
}
