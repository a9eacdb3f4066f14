package main

import (
	"fmt"

	"procurement-transparency/internal/service"

	"github.com/spf13/cobra"
)

var recalculateCmd = &cobra.Command{
	Use:   "recalculate [project-id...]",
	Short: "Rebuild review statistics",
	Long: `Rebuild the review statistics of the given projects, or of every project
when no id is given. Projects whose statistics are already current are left
untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		svc := service.NewStatisticsService(e.deps)
		if len(args) == 0 {
			n, err := svc.RecalculateAll(ctx)
			if err != nil {
				return fmt.Errorf("after %d projects: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recalculated %d projects\n", n)
			return nil
		}

		for _, id := range args {
			st, err := svc.Recalculate(ctx, id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d reviews\n", id, st.TotalReviews)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recalculateCmd)
}
