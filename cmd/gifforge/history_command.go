package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	sqlitestore "github.com/calibancode/gifforge/internal/adapter/storage/sqlite"
	"github.com/calibancode/gifforge/internal/domain"
)

type historyRow struct {
	ID         string              `json:"id"`
	Input      string              `json:"input"`
	Output     string              `json:"output"`
	Format     domain.OutputFormat `json:"format"`
	State      domain.JobState     `json:"state"`
	Cause      string              `json:"cause,omitempty"`
	Frames     int                 `json:"frames"`
	Duration   float64             `json:"duration"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			store, err := sqlitestore.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.List(limit)
			if err != nil {
				return err
			}

			if jsonOut {
				out := make([]historyRow, 0, len(records))
				for _, rec := range records {
					out = append(out, historyRow{
						ID:         rec.ID,
						Input:      rec.Input,
						Output:     rec.Output,
						Format:     rec.Format,
						State:      rec.State,
						Cause:      rec.Cause,
						Frames:     rec.Frames,
						Duration:   rec.Duration,
						CreatedAt:  rec.CreatedAt,
						FinishedAt: rec.FinishedAt,
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			if len(records) == 0 {
				fmt.Println("no conversions yet")
				return nil
			}

			headers := []string{"ID", "STATE", "FORMAT", "OUTPUT", "FRAMES", "FINISHED"}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					shortID(rec.ID),
					string(rec.State),
					string(rec.Format),
					rec.Output,
					fmt.Sprintf("%d", rec.Frames),
					rec.FinishedAt.Local().Format("2006-01-02 15:04"),
				})
			}

			if isTerminal(os.Stdout) {
				fmt.Println(renderTable(headers, rows))
			} else {
				fmt.Println(renderPlain(headers, rows))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to list (0 uses the store default)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit raw JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
