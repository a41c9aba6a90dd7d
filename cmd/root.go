package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/config"
	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/ledger"
	"github.com/quillbooks/quillbooks/internal/logger"
)

var version = "0.1.0"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:     "quillbooks",
	Short:   "Bookkeeping ledger with bank reconciliation",
	Long:    "quillbooks keeps a book ledger and a bank ledger in sqlite and reconciles\nimported bank transactions against recorded income and expenses.",
	Version: version,
}

// Execute runs the CLI with the loaded configuration.
func Execute(c config.Config) {
	cfg = c
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.Database.Path, "db", "", "path to the sqlite database (overrides config)")
}

// services bundles the engines behind every subcommand.
type services struct {
	db        *sql.DB
	bank      *ledger.BankService
	book      *ledger.BookService
	reconcile *ledger.ReconcileService
}

func openServices() (*services, error) {
	path := cfg.Database.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := database.RunMigrations(path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	return &services{
		db:        db,
		bank:      ledger.NewBankService(db),
		book:      ledger.NewBookService(db),
		reconcile: ledger.NewReconcileService(db),
	}, nil
}

func (s *services) Close() { _ = s.db.Close() }

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return database.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}
