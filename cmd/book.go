package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/database/repository"
	"github.com/quillbooks/quillbooks/internal/ledger"
	"github.com/quillbooks/quillbooks/internal/money"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Manage book transactions",
}

var bookAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a book transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		txnType, _ := cmd.Flags().GetString("type")
		amountStr, _ := cmd.Flags().GetString("amount")
		vatRate, _ := cmd.Flags().GetInt("vat")
		desc, _ := cmd.Flags().GetString("desc")
		dateStr, _ := cmd.Flags().GetString("date")
		payee, _ := cmd.Flags().GetString("payee")
		category, _ := cmd.Flags().GetString("category")

		amount, err := money.Parse(amountStr)
		if err != nil {
			return err
		}
		date, err := parseDateFlag(dateStr)
		if err != nil {
			return err
		}

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		in := ledger.CreateTransactionInput{
			OwnerID:         owner,
			Type:            txnType,
			TransactionDate: date,
			Description:     desc,
			Amount:          amount,
			VATRate:         vatRate,
		}
		if payee != "" {
			in.Payee = &payee
		}
		if category != "" {
			in.CategoryID = &category
		}
		txn, err := svcs.book.CreateTransaction(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("created transaction %s (total %s)\n", txn.ID, money.Format(txn.TotalAmount, "GBP"))
		return nil
	},
}

var bookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List book transactions for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		status, _ := cmd.Flags().GetString("status")
		txnType, _ := cmd.Flags().GetString("type")

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		txns, err := svcs.book.ListTransactions(cmd.Context(), repository.TransactionFilters{
			OwnerID: owner,
			Status:  status,
			Type:    txnType,
		})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTYPE\tNET\tVAT\tTOTAL\tSTATUS\tDESCRIPTION")
		for _, t := range txns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.TransactionDate.Format("2006-01-02"), t.Type,
				money.Format(t.Amount, ""), money.Format(t.VATAmount, ""),
				money.Format(t.TotalAmount, ""), t.Status, t.Description)
		}
		return w.Flush()
	},
}

var bookRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an unreconciled book transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := svcs.book.DeleteTransaction(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted transaction %s\n", args[0])
		return nil
	},
}

func init() {
	bookAddCmd.Flags().String("owner", "", "owner id")
	bookAddCmd.Flags().String("type", "", "income or expense")
	bookAddCmd.Flags().String("amount", "", "net amount, e.g. 125.50")
	bookAddCmd.Flags().Int("vat", 0, "VAT rate in basis points, e.g. 2000 for 20%")
	bookAddCmd.Flags().String("desc", "", "description")
	bookAddCmd.Flags().String("date", "", "transaction date (YYYY-MM-DD, default today)")
	bookAddCmd.Flags().String("payee", "", "payee")
	bookAddCmd.Flags().String("category", "", "category id")
	_ = bookAddCmd.MarkFlagRequired("owner")
	_ = bookAddCmd.MarkFlagRequired("type")
	_ = bookAddCmd.MarkFlagRequired("amount")
	_ = bookAddCmd.MarkFlagRequired("desc")

	bookListCmd.Flags().String("owner", "", "owner id")
	bookListCmd.Flags().String("status", "", "filter by status")
	bookListCmd.Flags().String("type", "", "filter by type")
	_ = bookListCmd.MarkFlagRequired("owner")

	bookCmd.AddCommand(bookAddCmd, bookListCmd, bookRmCmd)
	rootCmd.AddCommand(bookCmd)
}
