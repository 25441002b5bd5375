package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active and queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 5 * time.Second}
			url := fmt.Sprintf("http://%s/status", cfg.Paths.StatusBind)
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("daemon unreachable at %s (is `shelver run` active?): %w", cfg.Paths.StatusBind, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status endpoint returned %s", resp.Status)
			}

			var payload daemon.StatusPayload
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("decode status payload: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(payload.Active) == 0 {
				fmt.Fprintln(out, "No active jobs.")
			} else {
				rows := make([][]string, 0, len(payload.Active))
				for _, active := range payload.Active {
					rows = append(rows, []string{
						strconv.FormatInt(active.JobID, 10),
						fmt.Sprintf("%d%%", active.Percent),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"JOB", "PROGRESS"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			fmt.Fprintf(out, "Queued: %d\n", payload.Queued)
			return nil
		},
	}
}
