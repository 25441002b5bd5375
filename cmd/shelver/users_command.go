package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"shelver/internal/auth"
	"shelver/internal/logging"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List approved submitters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			approved, err := auth.Load(cfg.Paths.ApprovedUsersFile, logging.NewNop())
			if err != nil {
				return fmt.Errorf("load approved users: %w", err)
			}

			out := cmd.OutOrStdout()
			ids := approved.IDs()
			if len(ids) == 0 {
				fmt.Fprintf(out, "No approved submitters in %s.\n", cfg.Paths.ApprovedUsersFile)
				return nil
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{strconv.FormatInt(id, 10)})
			}
			fmt.Fprintln(out, renderTable([]string{"USER ID"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}
}
