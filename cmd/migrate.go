package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.RunMigrations(cfg.Database.Path); err != nil {
			return err
		}
		fmt.Println("database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
