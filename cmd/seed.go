package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/testdata"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with sample data",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := testdata.Seed(cmd.Context(), testdata.Services{
			Bank:      svcs.bank,
			Book:      svcs.book,
			Reconcile: svcs.reconcile,
		}); err != nil {
			return err
		}
		fmt.Println("seeded sample data")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
