package main

import (
	"fmt"
	"os"

	"procurement-transparency/internal/service"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Load projects, ministries and citizen reviews from a JSON file",
	Long: `Load a JSON file of projects into the database.

The file is either an array of projects or an object with "ministries" and
"projects" keys. Projects and reviews are matched by id and overwritten;
statistics of every imported project are rebuilt. The whole file is loaded
in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		file, err := service.ParseImportFile(data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()

		res, err := service.NewProjectService(e.deps).Import(ctx, file, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d projects, %d reviews, %d ministries\n",
			res.Projects, res.Reviews, res.Ministries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
