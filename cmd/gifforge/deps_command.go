package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calibancode/gifforge/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools the converter depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.Check(deps.Required(cfg.FFmpegPath, cfg.FFprobePath, cfg.GifsiclePath))

			headers := []string{"TOOL", "STATUS", "LOCATION", "PURPOSE"}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				status := "ok"
				location := s.Path
				if !s.Available {
					status = "missing"
					if s.Optional {
						status = "missing (optional)"
					}
					location = s.Detail
				}
				rows = append(rows, []string{s.Name, status, location, s.Description})
			}

			if isTerminal(os.Stdout) {
				fmt.Println(renderTable(headers, rows))
			} else {
				fmt.Println(renderPlain(headers, rows))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
