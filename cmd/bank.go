package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/ledger"
	"github.com/quillbooks/quillbooks/internal/money"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage bank transactions",
}

var bankAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a bank transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		owner, _ := cmd.Flags().GetString("owner")
		txnType, _ := cmd.Flags().GetString("type")
		amountStr, _ := cmd.Flags().GetString("amount")
		desc, _ := cmd.Flags().GetString("desc")
		dateStr, _ := cmd.Flags().GetString("date")
		ref, _ := cmd.Flags().GetString("ref")

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

		in := ledger.CreateBankTransactionInput{
			BankAccountID:   account,
			OwnerID:         owner,
			TransactionDate: date,
			Description:     desc,
			TransactionType: txnType,
			Amount:          amount,
		}
		if ref != "" {
			in.Reference = &ref
		}
		txn, err := svcs.bank.CreateBankTransaction(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("created bank transaction %s\n", txn.ID)
		return nil
	},
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bank transactions for an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		acct, err := svcs.bank.FindBankAccount(cmd.Context(), account)
		if err != nil {
			return err
		}
		txns, err := svcs.bank.ListBankTransactions(cmd.Context(), account)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tSTATUS\tDESCRIPTION")
		for _, t := range txns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.TransactionDate.Format("2006-01-02"), t.TransactionType,
				money.Format(t.Amount, acct.Currency), t.ReconciliationStatus, t.Description)
		}
		fmt.Fprintf(w, "\nBALANCE\t%s\n", money.Format(acct.CurrentBalance, acct.Currency))
		return w.Flush()
	},
}

var bankRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an unmatched bank transaction and reverse its balance effect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := svcs.bank.DeleteBankTransaction(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted bank transaction %s\n", args[0])
		return nil
	},
}

func init() {
	bankAddCmd.Flags().String("account", "", "bank account id")
	bankAddCmd.Flags().String("owner", "", "owner id")
	bankAddCmd.Flags().String("type", "", "credit or debit")
	bankAddCmd.Flags().String("amount", "", "amount, e.g. 125.50")
	bankAddCmd.Flags().String("desc", "", "description")
	bankAddCmd.Flags().String("date", "", "transaction date (YYYY-MM-DD, default today)")
	bankAddCmd.Flags().String("ref", "", "bank reference")
	_ = bankAddCmd.MarkFlagRequired("account")
	_ = bankAddCmd.MarkFlagRequired("owner")
	_ = bankAddCmd.MarkFlagRequired("type")
	_ = bankAddCmd.MarkFlagRequired("amount")
	_ = bankAddCmd.MarkFlagRequired("desc")

	bankListCmd.Flags().String("account", "", "bank account id")
	_ = bankListCmd.MarkFlagRequired("account")

	bankCmd.AddCommand(bankAddCmd, bankListCmd, bankRmCmd)
	rootCmd.AddCommand(bankCmd)
}
