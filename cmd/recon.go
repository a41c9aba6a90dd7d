package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/ledger"
	"github.com/quillbooks/quillbooks/internal/money"
)

var reconCmd = &cobra.Command{
	Use:   "recon",
	Short: "Reconcile bank transactions against the books",
}

var reconSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Record a pending match suggestion",
	RunE: func(cmd *cobra.Command, args []string) error {
		bankTxn, _ := cmd.Flags().GetString("bank-txn")
		txn, _ := cmd.Flags().GetString("txn")
		amountStr, _ := cmd.Flags().GetString("amount")
		confidence, _ := cmd.Flags().GetInt("confidence")
		matchType, _ := cmd.Flags().GetString("match-type")
		notes, _ := cmd.Flags().GetString("notes")

		amount, err := money.Parse(amountStr)
		if err != nil {
			return err
		}

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		in := ledger.SuggestMatchInput{
			BankTransactionID: bankTxn,
			TransactionID:     txn,
			MatchAmount:       amount,
			Confidence:        confidence,
			MatchType:         matchType,
		}
		if notes != "" {
			in.Notes = &notes
		}
		rec, err := svcs.reconcile.SuggestMatch(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("suggested match %s (%s, confidence %d)\n", rec.ID, rec.MatchType, rec.MatchConfidence)
		return nil
	},
}

var reconManualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Manually reconcile a bank transaction against a book transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		bankTxn, _ := cmd.Flags().GetString("bank-txn")
		txn, _ := cmd.Flags().GetString("txn")
		amountStr, _ := cmd.Flags().GetString("amount")
		by, _ := cmd.Flags().GetString("by")
		matchType, _ := cmd.Flags().GetString("match-type")
		notes, _ := cmd.Flags().GetString("notes")

		amount, err := money.Parse(amountStr)
		if err != nil {
			return err
		}

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		in := ledger.ReconcileInput{
			BankTransactionID: bankTxn,
			TransactionID:     txn,
			MatchAmount:       amount,
			ReconciledBy:      by,
			MatchType:         matchType,
		}
		if notes != "" {
			in.Notes = &notes
		}
		rec, err := svcs.reconcile.Reconcile(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("reconciled %s (%s)\n", rec.ID, rec.MatchType)
		return nil
	},
}

var reconConfirmCmd = &cobra.Command{
	Use:   "confirm <id>",
	Short: "Confirm a pending suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		notes, _ := cmd.Flags().GetString("notes")

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		var notesPtr *string
		if notes != "" {
			notesPtr = &notes
		}
		rec, err := svcs.reconcile.ConfirmReconciliation(cmd.Context(), args[0], by, notesPtr)
		if err != nil {
			return err
		}
		fmt.Printf("confirmed %s\n", rec.ID)
		return nil
	},
}

var reconRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending suggestion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		notes, _ := cmd.Flags().GetString("notes")

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		var notesPtr *string
		if notes != "" {
			notesPtr = &notes
		}
		rec, err := svcs.reconcile.RejectReconciliation(cmd.Context(), args[0], by, notesPtr)
		if err != nil {
			return err
		}
		fmt.Printf("rejected %s\n", rec.ID)
		return nil
	},
}

var reconPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending suggestions, highest confidence first",
	RunE: func(cmd *cobra.Command, args []string) error {
		minConfidence, _ := cmd.Flags().GetInt("min-confidence")

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		recs, err := svcs.reconcile.PendingReconciliations(cmd.Context(), minConfidence)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBANK TXN\tBOOK TXN\tAMOUNT\tTYPE\tCONFIDENCE")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				r.ID, r.BankTransactionID, r.TransactionID,
				money.Format(r.MatchAmount, ""), r.MatchType, r.MatchConfidence)
		}
		return w.Flush()
	},
}

var reconHistoryCmd = &cobra.Command{
	Use:   "history <bank-txn-id>",
	Short: "Show every match recorded against a bank transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		recs, err := svcs.reconcile.MatchHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBOOK TXN\tAMOUNT\tTYPE\tSTATUS\tBY")
		for _, r := range recs {
			by := ""
			if r.ReconciledBy != nil {
				by = *r.ReconciledBy
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.TransactionID, money.Format(r.MatchAmount, ""),
				r.MatchType, r.Status, by)
		}
		return w.Flush()
	},
}

var reconRemainingCmd = &cobra.Command{
	Use:   "remaining <bank-txn-id>",
	Short: "Show the unmatched remainder of a bank transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		txn, err := svcs.bank.FindBankTransaction(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		remaining, err := svcs.reconcile.RemainingAmount(cmd.Context(), txn.ID, txn.Amount)
		if err != nil {
			return err
		}
		fmt.Printf("%s of %s remaining\n", money.Format(remaining, ""), money.Format(txn.Amount, ""))
		return nil
	},
}

var reconUnmatchCmd = &cobra.Command{
	Use:   "unmatch <id>",
	Short: "Undo a confirmed reconciliation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := svcs.reconcile.Unreconcile(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("unmatched %s\n", args[0])
		return nil
	},
}

var reconExcludeCmd = &cobra.Command{
	Use:   "exclude <bank-txn-id>",
	Short: "Exclude a bank transaction from matching",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := svcs.reconcile.ExcludeBankTransaction(cmd.Context(), args[0], reason, ttl); err != nil {
			return err
		}
		fmt.Printf("excluded %s\n", args[0])
		return nil
	},
}

var reconIncludeCmd = &cobra.Command{
	Use:   "include <bank-txn-id>",
	Short: "Lift an exclusion and return the bank transaction to matching",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := svcs.reconcile.IncludeBankTransaction(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("included %s\n", args[0])
		return nil
	},
}

var reconSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire lapsed exclusions",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := openServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		n, err := svcs.reconcile.SweepExclusions(cmd.Context(), database.Now())
		if err != nil {
			return err
		}
		fmt.Printf("swept %d exclusion(s)\n", n)
		return nil
	},
}

func init() {
	reconSuggestCmd.Flags().String("bank-txn", "", "bank transaction id")
	reconSuggestCmd.Flags().String("txn", "", "book transaction id")
	reconSuggestCmd.Flags().String("amount", "", "match amount")
	reconSuggestCmd.Flags().Int("confidence", 0, "confidence score 0-100")
	reconSuggestCmd.Flags().String("match-type", "", "exact, partial, split or adjustment")
	reconSuggestCmd.Flags().String("notes", "", "notes")
	_ = reconSuggestCmd.MarkFlagRequired("bank-txn")
	_ = reconSuggestCmd.MarkFlagRequired("txn")
	_ = reconSuggestCmd.MarkFlagRequired("amount")

	reconManualCmd.Flags().String("bank-txn", "", "bank transaction id")
	reconManualCmd.Flags().String("txn", "", "book transaction id")
	reconManualCmd.Flags().String("amount", "", "match amount")
	reconManualCmd.Flags().String("by", "", "user performing the reconciliation")
	reconManualCmd.Flags().String("match-type", "", "exact, partial, split or adjustment")
	reconManualCmd.Flags().String("notes", "", "notes")
	_ = reconManualCmd.MarkFlagRequired("bank-txn")
	_ = reconManualCmd.MarkFlagRequired("txn")
	_ = reconManualCmd.MarkFlagRequired("amount")
	_ = reconManualCmd.MarkFlagRequired("by")

	reconConfirmCmd.Flags().String("by", "", "user confirming the match")
	reconConfirmCmd.Flags().String("notes", "", "notes")
	_ = reconConfirmCmd.MarkFlagRequired("by")

	reconRejectCmd.Flags().String("by", "", "user rejecting the match")
	reconRejectCmd.Flags().String("notes", "", "notes")
	_ = reconRejectCmd.MarkFlagRequired("by")

	reconPendingCmd.Flags().Int("min-confidence", 0, "minimum confidence score")

	reconExcludeCmd.Flags().String("reason", "", "why the transaction is excluded")
	reconExcludeCmd.Flags().Duration("ttl", 0, "expiry, e.g. 720h; 0 means never")
	_ = reconExcludeCmd.MarkFlagRequired("reason")

	reconCmd.AddCommand(
		reconSuggestCmd, reconManualCmd, reconConfirmCmd, reconRejectCmd,
		reconPendingCmd, reconHistoryCmd, reconRemainingCmd, reconUnmatchCmd,
		reconExcludeCmd, reconIncludeCmd, reconSweepCmd,
	)
	rootCmd.AddCommand(reconCmd)
}
