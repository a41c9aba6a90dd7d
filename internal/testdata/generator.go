package testdata

import (
	"context"
	"time"

	"github.com/quillbooks/quillbooks/internal/database/repository"
	"github.com/quillbooks/quillbooks/internal/ledger"
)

// Services bundles the engines used by Seed.
type Services struct {
	Bank      *ledger.BankService
	Book      *ledger.BookService
	Reconcile *ledger.ReconcileService
}

const demoOwner = "demo-owner"

// Seed creates a sample account with bank and book activity, one confirmed
// match and a couple of pending suggestions, so the CLI has something to show
// on a fresh database.
func Seed(ctx context.Context, svcs Services) error {
	acct, err := svcs.Bank.CreateBankAccount(ctx, ledger.CreateBankAccountInput{
		OwnerID:        demoOwner,
		AccountName:    "Business Current",
		BankName:       "Sample Bank",
		SortCode:       "12-34-56",
		AccountNumber:  "00012345",
		Currency:       "GBP",
		OpeningBalance: 100000,
		IsDefault:      true,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	type bankRow struct {
		days int
		desc string
		typ  string
		amt  int64
	}
	var bankTxns []repository.BankTransaction
	for _, row := range []bankRow{
		{days: -9, desc: "FPS CREDIT ACME LTD INV-0042", typ: repository.TransactionTypeCredit, amt: 50000},
		{days: -7, desc: "DD STAPLES OFFICE SUPPLIES", typ: repository.TransactionTypeDebit, amt: 12300},
		{days: -4, desc: "CARD 4921 TRAINLINE", typ: repository.TransactionTypeDebit, amt: 8650},
		{days: -2, desc: "FPS CREDIT NORTHWIND INV-0043", typ: repository.TransactionTypeCredit, amt: 24000},
	} {
		src := "seed"
		t, err := svcs.Bank.CreateBankTransaction(ctx, ledger.CreateBankTransactionInput{
			BankAccountID:   acct.ID,
			OwnerID:         demoOwner,
			TransactionDate: now.AddDate(0, 0, row.days),
			Description:     row.desc,
			ImportSource:    &src,
			TransactionType: row.typ,
			Amount:          row.amt,
		})
		if err != nil {
			return err
		}
		bankTxns = append(bankTxns, *t)
	}

	type bookRow struct {
		days int
		desc string
		typ  string
		amt  int64
		vat  int
	}
	var bookTxns []repository.Transaction
	for _, row := range []bookRow{
		{days: -10, desc: "Invoice 0042 - Acme Ltd", typ: repository.BookTypeIncome, amt: 50000},
		{days: -7, desc: "Office supplies", typ: repository.BookTypeExpense, amt: 10250, vat: 2000},
		{days: -3, desc: "Invoice 0043 - Northwind", typ: repository.BookTypeIncome, amt: 24000},
	} {
		t, err := svcs.Book.CreateTransaction(ctx, ledger.CreateTransactionInput{
			OwnerID:         demoOwner,
			Type:            row.typ,
			Status:          repository.BookStatusCleared,
			TransactionDate: now.AddDate(0, 0, row.days),
			Description:     row.desc,
			Amount:          row.amt,
			VATRate:         row.vat,
		})
		if err != nil {
			return err
		}
		bookTxns = append(bookTxns, *t)
	}

	// One committed match, plus suggestions for a reviewer to work through.
	if _, err := svcs.Reconcile.Reconcile(ctx, ledger.ReconcileInput{
		BankTransactionID: bankTxns[0].ID,
		TransactionID:     bookTxns[0].ID,
		MatchAmount:       50000,
		ReconciledBy:      demoOwner,
	}); err != nil {
		return err
	}
	if _, err := svcs.Reconcile.SuggestMatch(ctx, ledger.SuggestMatchInput{
		BankTransactionID: bankTxns[1].ID,
		TransactionID:     bookTxns[1].ID,
		MatchAmount:       12300,
		Confidence:        92,
	}); err != nil {
		return err
	}
	if _, err := svcs.Reconcile.SuggestMatch(ctx, ledger.SuggestMatchInput{
		BankTransactionID: bankTxns[3].ID,
		TransactionID:     bookTxns[2].ID,
		MatchAmount:       24000,
		Confidence:        78,
	}); err != nil {
		return err
	}
	return nil
}
