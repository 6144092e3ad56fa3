// Package main is the command-line entry point for the investment ledger.
// It opens (or creates) a ledger file and prints a portfolio summary:
// accounts with cash balances and transaction counts, and securities with
// holdings, cost basis and market value.
//
// The application follows the same layering as the library:
// - internal/database owns the SQLite file
// - internal/ledger is the storage engine and notification bus
// - internal/analytics derives the printed metrics
package main

import (
	"fmt"
	"time"

	"github.com/pViewApp/pview3-sub000/internal/analytics"
	"github.com/pViewApp/pview3-sub000/internal/config"
	"github.com/pViewApp/pview3-sub000/internal/database"
	"github.com/pViewApp/pview3-sub000/internal/ledger"
	"github.com/pViewApp/pview3-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.PrettyLogging,
	})
	logger.SetGlobalLogger(log)

	db, err := database.Open(database.Config{
		Path:            cfg.LedgerPath,
		CreateIfMissing: cfg.CreateLedger,
		Name:            "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LedgerPath).Msg("Failed to open ledger file")
	}

	l, err := ledger.Open(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger engine")
	}
	defer func() {
		if err := l.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close ledger")
		}
	}()

	if l.FilePath() == "" {
		log.Info().Msg("Opened temporary ledger")
	} else {
		log.Info().Str("path", l.FilePath()).Msg("Opened ledger")
	}

	if err := printSummary(l); err != nil {
		log.Fatal().Err(err).Msg("Failed to print summary")
	}
}

// printSummary writes the portfolio summary for today to stdout.
func printSummary(l *ledger.Ledger) error {
	asOf := epochDay(time.Now())

	accounts, err := l.Accounts()
	if err != nil {
		return err
	}

	fmt.Printf("Accounts (%d)\n", len(accounts))
	for _, a := range accounts {
		balance, err := analytics.CashBalance(l, a.ID, asOf)
		if err != nil {
			return err
		}
		count, err := l.TransactionCountForAccount(a.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  %-24s cash %s  (%d transactions)\n", a.Name, formatMinorUnits(balance), count)
	}

	securities, err := l.Securities()
	if err != nil {
		return err
	}

	fmt.Printf("Securities (%d)\n", len(securities))
	for _, s := range securities {
		held, err := analytics.SharesHeld(l, s.ID, 0, asOf)
		if err != nil {
			return err
		}
		basis, err := analytics.CostBasis(l, s.ID, 0, asOf)
		if err != nil {
			return err
		}
		value, priced, err := analytics.MarketValue(l, s.ID, 0, asOf)
		if err != nil {
			return err
		}
		income, err := analytics.TotalIncome(l, s.ID, 0, asOf)
		if err != nil {
			return err
		}

		marketValue := "n/a"
		if priced {
			marketValue = formatMinorUnits(value)
		}
		fmt.Printf("  %-8s %6d shares  cost %s  value %s  income %s\n",
			s.Symbol, held, formatMinorUnits(basis), marketValue, formatMinorUnits(income))
	}

	_, err = fmt.Println()
	return err
}

// epochDay converts a wall-clock time to the ledger's day-granularity epoch
// date.
func epochDay(t time.Time) int64 {
	return t.UTC().Unix() / (24 * 60 * 60)
}

// formatMinorUnits renders an amount in minor currency units as a decimal
// string.
func formatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
