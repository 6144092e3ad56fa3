// Package analytics computes derived financial metrics from the ledger's
// rows: shares held, cost basis, market value, realized and unrealized
// gain, and income.
//
// Every function is a pure read over the engine's current state at a fixed
// as-of date; nothing is cached. All amounts are integers in minor currency
// units and all dates are integer day-granularity epoch values. Date
// filters are inclusive (date <= asOf) except where a DateFilter argument
// says otherwise. Metrics that can be undefined (an average over no rows, a
// price with no history) return ok=false instead of a value.
package analytics

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pViewApp/pview3-sub000/internal/ledger"
)

// DateFilter selects how an income metric matches the as-of date. The
// recorded behavior of the income queries is an exact date match, unlike
// every other metric; both behaviors are offered so the caller chooses
// explicitly.
type DateFilter int

const (
	// DateOn matches rows dated exactly asOf.
	DateOn DateFilter = iota
	// DateOnOrBefore matches rows dated on or before asOf.
	DateOnOrBefore
)

func (f DateFilter) sqlOp() string {
	if f == DateOnOrBefore {
		return "<="
	}
	return "="
}

// SharesHeld returns the number of shares of a security held on asOf:
// shares bought minus shares sold. accountID zero means all accounts.
func SharesHeld(l *ledger.Ledger, securityID, accountID, asOf int64) (int64, error) {
	bought, err := sumShares(l, "BuyTransactions", securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	sold, err := sumShares(l, "SellTransactions", securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	return bought - sold, nil
}

// SharesSold returns the number of shares of a security sold on or before
// asOf. accountID zero means all accounts.
func SharesSold(l *ledger.Ledger, securityID, accountID, asOf int64) (int64, error) {
	return sumShares(l, "SellTransactions", securityID, accountID, asOf)
}

// AverageBuyPrice returns the share-weighted average purchase price of a
// security over buys dated on or before asOf. ok is false when no shares
// were bought.
func AverageBuyPrice(l *ledger.Ledger, securityID, accountID, asOf int64) (price int64, ok bool, err error) {
	return averagePrice(l, "BuyTransactions", securityID, accountID, asOf)
}

// AverageSellPrice returns the share-weighted average sale price of a
// security over sells dated on or before asOf. ok is false when no shares
// were sold.
func AverageSellPrice(l *ledger.Ledger, securityID, accountID, asOf int64) (price int64, ok bool, err error) {
	return averagePrice(l, "SellTransactions", securityID, accountID, asOf)
}

// CashBalance returns the cash balance of an account on asOf: deposits,
// sale proceeds and dividends in; purchases and withdrawals out.
func CashBalance(l *ledger.Ledger, accountID, asOf int64) (int64, error) {
	buy, err := sumOne(l, `SELECT COALESCE(SUM(d.Shares * d.SharePrice + d.Commission), 0)
		FROM BuyTransactions d JOIN Transactions t ON t.Id = d.TransactionId
		WHERE t.AccountId = ? AND t.Date <= ?`, accountID, asOf)
	if err != nil {
		return 0, err
	}
	sell, err := sumOne(l, `SELECT COALESCE(SUM(d.Shares * d.SharePrice - d.Commission), 0)
		FROM SellTransactions d JOIN Transactions t ON t.Id = d.TransactionId
		WHERE t.AccountId = ? AND t.Date <= ?`, accountID, asOf)
	if err != nil {
		return 0, err
	}
	deposit, err := sumAmount(l, "DepositTransactions", accountID, asOf)
	if err != nil {
		return 0, err
	}
	withdraw, err := sumAmount(l, "WithdrawTransactions", accountID, asOf)
	if err != nil {
		return 0, err
	}
	dividend, err := sumAmount(l, "DividendTransactions", accountID, asOf)
	if err != nil {
		return 0, err
	}
	return -buy + sell + deposit - withdraw + dividend, nil
}

// SharePrice returns the latest recorded price of a security dated on or
// before asOf. ok is false when no price has been recorded by then.
func SharePrice(l *ledger.Ledger, securityID, asOf int64) (price int64, ok bool, err error) {
	row, err := l.QueryRow(`SELECT Price FROM SecurityPrices
		WHERE SecurityId = ? AND Date <= ? ORDER BY Date DESC LIMIT 1`, securityID, asOf)
	if err != nil {
		return 0, false, err
	}
	if err := row.Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read share price: %w", err)
	}
	return price, true, nil
}

// CostBasis returns sharesHeld x averageBuyPrice, or zero when the average
// buy price is unavailable.
func CostBasis(l *ledger.Ledger, securityID, accountID, asOf int64) (int64, error) {
	held, err := SharesHeld(l, securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	avg, ok, err := AverageBuyPrice(l, securityID, accountID, asOf)
	if err != nil || !ok {
		return 0, err
	}
	return held * avg, nil
}

// MarketValue returns sharePrice x sharesHeld. ok is false when no price is
// available.
func MarketValue(l *ledger.Ledger, securityID, accountID, asOf int64) (value int64, ok bool, err error) {
	price, ok, err := SharePrice(l, securityID, asOf)
	if err != nil || !ok {
		return 0, false, err
	}
	held, err := SharesHeld(l, securityID, accountID, asOf)
	if err != nil {
		return 0, false, err
	}
	return price * held, true, nil
}

// UnrealizedCashGained returns sharesHeld x (sharePrice - averageBuyPrice).
// ok is false when either the price or the average buy price is
// unavailable.
func UnrealizedCashGained(l *ledger.Ledger, securityID, accountID, asOf int64) (gain int64, ok bool, err error) {
	price, ok, err := SharePrice(l, securityID, asOf)
	if err != nil || !ok {
		return 0, false, err
	}
	avg, ok, err := AverageBuyPrice(l, securityID, accountID, asOf)
	if err != nil || !ok {
		return 0, false, err
	}
	held, err := SharesHeld(l, securityID, accountID, asOf)
	if err != nil {
		return 0, false, err
	}
	return held * (price - avg), true, nil
}

// CashGained returns the realized gain sharesSold x (averageSellPrice -
// averageBuyPrice), treating unavailable averages as zero.
func CashGained(l *ledger.Ledger, securityID, accountID, asOf int64) (int64, error) {
	sold, err := SharesSold(l, securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	avgSell, ok, err := AverageSellPrice(l, securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	if !ok {
		avgSell = 0
	}
	avgBuy, ok, err := AverageBuyPrice(l, securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	if !ok {
		avgBuy = 0
	}
	return sold * (avgSell - avgBuy), nil
}

// DividendIncome returns dividend amounts received from a security,
// matched against asOf per filter. accountID zero means all accounts.
func DividendIncome(l *ledger.Ledger, securityID, accountID, asOf int64, filter DateFilter) (int64, error) {
	return sumIncome(l, "DividendTransactions", securityID, accountID, asOf, filter)
}

// InterestIncome returns interest amounts received from a security, matched
// against asOf per filter. accountID zero means all accounts.
func InterestIncome(l *ledger.Ledger, securityID, accountID, asOf int64, filter DateFilter) (int64, error) {
	return sumIncome(l, "InterestTransactions", securityID, accountID, asOf, filter)
}

// TotalIncome returns unrealized gain (zero when unavailable) plus realized
// gain plus dividend and interest income. The income terms use the recorded
// exact-date behavior (DateOn).
func TotalIncome(l *ledger.Ledger, securityID, accountID, asOf int64) (int64, error) {
	unrealized, ok, err := UnrealizedCashGained(l, securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	if !ok {
		unrealized = 0
	}
	realized, err := CashGained(l, securityID, accountID, asOf)
	if err != nil {
		return 0, err
	}
	dividend, err := DividendIncome(l, securityID, accountID, asOf, DateOn)
	if err != nil {
		return 0, err
	}
	interest, err := InterestIncome(l, securityID, accountID, asOf, DateOn)
	if err != nil {
		return 0, err
	}
	return unrealized + realized + dividend + interest, nil
}

// sumShares totals the Shares column of one trade detail table for a
// security dated on or before asOf, optionally scoped to an account.
func sumShares(l *ledger.Ledger, table string, securityID, accountID, asOf int64) (int64, error) {
	query := `SELECT COALESCE(SUM(d.Shares), 0) FROM ` + table + ` d
		JOIN Transactions t ON t.Id = d.TransactionId
		WHERE d.SecurityId = ? AND t.Date <= ?`
	args := []any{securityID, asOf}
	if accountID != 0 {
		query += ` AND t.AccountId = ?`
		args = append(args, accountID)
	}
	return sumOne(l, query, args...)
}

// averagePrice computes the share-weighted average price over one trade
// detail table. Integer division; ok is false when no shares match, which
// also guards the division.
func averagePrice(l *ledger.Ledger, table string, securityID, accountID, asOf int64) (int64, bool, error) {
	query := `SELECT COALESCE(SUM(d.Shares * d.SharePrice), 0), COALESCE(SUM(d.Shares), 0) FROM ` + table + ` d
		JOIN Transactions t ON t.Id = d.TransactionId
		WHERE d.SecurityId = ? AND t.Date <= ?`
	args := []any{securityID, asOf}
	if accountID != 0 {
		query += ` AND t.AccountId = ?`
		args = append(args, accountID)
	}

	row, err := l.QueryRow(query, args...)
	if err != nil {
		return 0, false, err
	}
	var weighted, shares int64
	if err := row.Scan(&weighted, &shares); err != nil {
		return 0, false, fmt.Errorf("failed to compute average price: %w", err)
	}
	if shares == 0 {
		return 0, false, nil
	}
	return weighted / shares, true, nil
}

// sumAmount totals the Amount column of one cash detail table for an
// account dated on or before asOf.
func sumAmount(l *ledger.Ledger, table string, accountID, asOf int64) (int64, error) {
	return sumOne(l, `SELECT COALESCE(SUM(d.Amount), 0) FROM `+table+` d
		JOIN Transactions t ON t.Id = d.TransactionId
		WHERE t.AccountId = ? AND t.Date <= ?`, accountID, asOf)
}

// sumIncome totals the Amount column of one income detail table for a
// security, with the date matched per filter.
func sumIncome(l *ledger.Ledger, table string, securityID, accountID, asOf int64, filter DateFilter) (int64, error) {
	query := `SELECT COALESCE(SUM(d.Amount), 0) FROM ` + table + ` d
		JOIN Transactions t ON t.Id = d.TransactionId
		WHERE d.SecurityId = ? AND t.Date ` + filter.sqlOp() + ` ?`
	args := []any{securityID, asOf}
	if accountID != 0 {
		query += ` AND t.AccountId = ?`
		args = append(args, accountID)
	}
	return sumOne(l, query, args...)
}

func sumOne(l *ledger.Ledger, query string, args ...any) (int64, error) {
	row, err := l.QueryRow(query, args...)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to compute sum: %w", err)
	}
	return total, nil
}
