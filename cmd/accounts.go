package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/ledger"
	"github.com/quillbooks/quillbooks/internal/money"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage bank accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bank accounts for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		accts, err := svcs.bank.ListBankAccounts(cmd.Context(), owner)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBANK\tBALANCE\tACTIVE")
		for _, a := range accts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
				a.ID, a.AccountName, a.BankName, money.Format(a.CurrentBalance, a.Currency), a.IsActive)
		}
		return w.Flush()
	},
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bank account",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		name, _ := cmd.Flags().GetString("name")
		bank, _ := cmd.Flags().GetString("bank")
		currency, _ := cmd.Flags().GetString("currency")
		opening, _ := cmd.Flags().GetString("opening")
		isDefault, _ := cmd.Flags().GetBool("default")

		openingMinor := int64(0)
		if opening != "" {
			var err error
			openingMinor, err = money.Parse(opening)
			if err != nil {
				return err
			}
		}

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		a, err := svcs.bank.CreateBankAccount(cmd.Context(), ledger.CreateBankAccountInput{
			OwnerID:        owner,
			AccountName:    name,
			BankName:       bank,
			Currency:       currency,
			OpeningBalance: openingMinor,
			IsDefault:      isDefault,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created account %s (%s)\n", a.ID, money.Format(a.CurrentBalance, a.Currency))
		return nil
	},
}

func init() {
	accountsListCmd.Flags().String("owner", "", "owner id")
	_ = accountsListCmd.MarkFlagRequired("owner")

	accountsCreateCmd.Flags().String("owner", "", "owner id")
	accountsCreateCmd.Flags().String("name", "", "account name")
	accountsCreateCmd.Flags().String("bank", "", "bank name")
	accountsCreateCmd.Flags().String("currency", "GBP", "currency code")
	accountsCreateCmd.Flags().String("opening", "0.00", "opening balance")
	accountsCreateCmd.Flags().Bool("default", false, "mark as default account")
	_ = accountsCreateCmd.MarkFlagRequired("owner")
	_ = accountsCreateCmd.MarkFlagRequired("name")

	accountsCmd.AddCommand(accountsListCmd, accountsCreateCmd)
	rootCmd.AddCommand(accountsCmd)
}
