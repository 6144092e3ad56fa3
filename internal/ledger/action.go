package ledger

// Action is the closed set of transaction kinds. Every transaction row
// carries exactly one action and one matching detail row.
type Action int

const (
	ActionBuy Action = iota
	ActionSell
	ActionDeposit
	ActionWithdraw
	ActionDividend
	ActionInterest
)

// String returns the display name of the action.
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	case ActionDeposit:
		return "Deposit"
	case ActionWithdraw:
		return "Withdraw"
	case ActionDividend:
		return "Dividend"
	case ActionInterest:
		return "Interest"
	}
	return "Unknown"
}

// Detail is the kind-specific part of a transaction. Each action has its own
// variant; code that computes derived amounts or dispatches to detail tables
// switches exhaustively over these.
type Detail interface {
	// Action returns the kind this detail belongs to.
	Action() Action
	// Amount returns the signed cash amount of the detail in minor units.
	// Buys cost shares*price plus commission; sells yield shares*price
	// minus commission; the remaining kinds carry their amount verbatim.
	Amount() int64
}

// BuyDetail holds the detail row of a buy transaction.
type BuyDetail struct {
	SecurityID int64
	Shares     int64
	SharePrice int64
	Commission int64
}

// Action implements Detail.
func (d BuyDetail) Action() Action { return ActionBuy }

// Amount implements Detail.
func (d BuyDetail) Amount() int64 { return d.Shares*d.SharePrice + d.Commission }

// SellDetail holds the detail row of a sell transaction.
type SellDetail struct {
	SecurityID int64
	Shares     int64
	SharePrice int64
	Commission int64
}

// Action implements Detail.
func (d SellDetail) Action() Action { return ActionSell }

// Amount implements Detail.
func (d SellDetail) Amount() int64 { return d.Shares*d.SharePrice - d.Commission }

// DepositDetail holds the detail row of a cash deposit. SecurityID is
// optional; zero means the deposit is not tied to a security.
type DepositDetail struct {
	SecurityID int64
	Value      int64
}

// Action implements Detail.
func (d DepositDetail) Action() Action { return ActionDeposit }

// Amount implements Detail.
func (d DepositDetail) Amount() int64 { return d.Value }

// WithdrawDetail holds the detail row of a cash withdrawal. SecurityID is
// optional; zero means the withdrawal is not tied to a security.
type WithdrawDetail struct {
	SecurityID int64
	Value      int64
}

// Action implements Detail.
func (d WithdrawDetail) Action() Action { return ActionWithdraw }

// Amount implements Detail.
func (d WithdrawDetail) Amount() int64 { return d.Value }

// DividendDetail holds the detail row of a dividend payment.
type DividendDetail struct {
	SecurityID int64
	Value      int64
}

// Action implements Detail.
func (d DividendDetail) Action() Action { return ActionDividend }

// Amount implements Detail.
func (d DividendDetail) Amount() int64 { return d.Value }

// InterestDetail holds the detail row of an interest payment.
type InterestDetail struct {
	SecurityID int64
	Value      int64
}

// Action implements Detail.
func (d InterestDetail) Action() Action { return ActionInterest }

// Amount implements Detail.
func (d InterestDetail) Amount() int64 { return d.Value }
