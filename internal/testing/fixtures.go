package testing

import (
	"testing"

	"github.com/pViewApp/pview3-sub000/internal/ledger"
)

// SeedAccount creates an account and returns its id.
func SeedAccount(t *testing.T, l *ledger.Ledger, name string) int64 {
	t.Helper()

	if code := l.AddAccount(name); code != ledger.ResultOK {
		t.Fatalf("Failed to seed account %q: %s (%s)", name, code, l.ErrorMessage())
	}
	return l.LastInsertedID()
}

// SeedSecurity creates a security and returns its id.
func SeedSecurity(t *testing.T, l *ledger.Ledger, symbol, name string) int64 {
	t.Helper()

	if code := l.AddSecurity(symbol, name, "Equity", "Technology"); code != ledger.ResultOK {
		t.Fatalf("Failed to seed security %q: %s (%s)", symbol, code, l.ErrorMessage())
	}
	return l.LastInsertedID()
}

// SeedBuy records a buy transaction and returns its id.
func SeedBuy(t *testing.T, l *ledger.Ledger, accountID, date, securityID, shares, price, commission int64) int64 {
	t.Helper()

	if code := l.AddBuyTransaction(accountID, date, securityID, shares, price, commission); code != ledger.ResultOK {
		t.Fatalf("Failed to seed buy transaction: %s (%s)", code, l.ErrorMessage())
	}
	return l.LastInsertedID()
}

// SeedSell records a sell transaction and returns its id.
func SeedSell(t *testing.T, l *ledger.Ledger, accountID, date, securityID, shares, price, commission int64) int64 {
	t.Helper()

	if code := l.AddSellTransaction(accountID, date, securityID, shares, price, commission); code != ledger.ResultOK {
		t.Fatalf("Failed to seed sell transaction: %s (%s)", code, l.ErrorMessage())
	}
	return l.LastInsertedID()
}
