// Command treasury-report exports the ledgers as an xlsx financial report or
// restores them from a previously exported backup file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"treasury/internal/config"
	"treasury/internal/core"
	"treasury/internal/export"
	"treasury/internal/services"
	"treasury/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		err = runExport(ctx, repo, os.Args[2:])
	case "restore":
		err = runRestore(ctx, repo, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  treasury-report export [-out report.xlsx] [-start YYYY-MM-DD] [-end YYYY-MM-DD]
  treasury-report restore -in backup.xlsx`)
}

func runExport(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "report.xlsx", "output file path")
	start := fs.String("start", "", "inclusive start date (YYYY-MM-DD)")
	end := fs.String("end", "", "inclusive end date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var rng storage.DateRange
	period := "all time"
	if *start != "" {
		d, err := core.ParseDate(*start)
		if err != nil {
			return fmt.Errorf("invalid start date %q", *start)
		}
		rng.Start = d
	}
	if *end != "" {
		d, err := core.ParseDate(*end)
		if err != nil {
			return fmt.Errorf("invalid end date %q", *end)
		}
		rng.End = d
	}
	if !rng.Start.IsZero() || !rng.End.IsZero() {
		period = fmt.Sprintf("%s to %s", rng.Start, rng.End)
	}

	incomes, err := repo.ListTransactions(ctx, core.KindIncome, rng)
	if err != nil {
		return err
	}
	expenses, err := repo.ListTransactions(ctx, core.KindExpense, rng)
	if err != nil {
		return err
	}

	if err := export.SaveReport(*out, incomes, expenses, period); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d incomes, %d expenses)\n", *out, len(incomes), len(expenses))
	return nil
}

func runRestore(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	in := fs.String("in", "", "backup file to restore from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("missing -in flag")
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	incomes, expenses, err := export.ReadBackup(f)
	if err != nil {
		return err
	}

	ledger := services.NewLedgerService(repo, nil)
	sess := services.Session{Username: "cli", Role: "admin"}
	if err := ledger.RestoreBackup(ctx, sess, incomes, expenses); err != nil {
		return err
	}
	fmt.Printf("restored %d incomes and %d expenses from %s\n", len(incomes), len(expenses), *in)
	return nil
}
