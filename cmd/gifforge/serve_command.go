package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	HTTPAdapter "github.com/calibancode/gifforge/internal/adapter/http"
	"github.com/calibancode/gifforge/internal/deps"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ServeAddr = addr
			}

			stack, cleanup, err := newServiceStack(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			requirements := deps.Required(cfg.FFmpegPath, cfg.FFprobePath, cfg.GifsiclePath)
			uploadDir := filepath.Join(cfg.DataDir, "uploads")

			server := HTTPAdapter.NewServer(stack.svc, stack.bus, cfg.Parameters(), uploadDir, cfg.MaxUploadSizeMB, requirements)

			httpServer := &http.Server{
				Addr:         cfg.ServeAddr,
				Handler:      server,
				ReadTimeout:  5 * time.Minute,
				WriteTimeout: 10 * time.Minute,
				IdleTimeout:  120 * time.Second,
			}

			// Graceful shutdown
			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
				sig := <-sigChan
				logger.Info.Printf("received %s, shutting down", sig)

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer shutdownCancel()

				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Error.Printf("http shutdown error: %v", err)
				}
			}()

			logger.Info.Printf("server listening on %s", cfg.ServeAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info.Printf("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
