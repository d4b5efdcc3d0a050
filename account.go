package filebank

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AcctSavings  AccountType = "SAVINGS"
	AcctChecking AccountType = "CHECKING"
	AcctPremium  AccountType = "PREMIUM"
)

var defaultRates = map[AccountType]decimal.Decimal{
	AcctSavings:  decimal.New(3, -2),
	AcctChecking: decimal.New(1, -2),
	AcctPremium:  decimal.New(5, -2),
}

// DefaultInterestRate is the annual rate a new account of type t starts with.
func (t AccountType) DefaultInterestRate() decimal.Decimal {
	return defaultRates[t]
}

func (t AccountType) Valid() bool {
	_, ok := defaultRates[t]
	return ok
}

func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrValidation{Fields: map[string]string{"accountType": "unknown account type " + s}}
	}
	return t, nil
}

type AccountStatus string

const (
	StatusActive    AccountStatus = "ACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
	StatusClosed    AccountStatus = "CLOSED"
)

func ParseAccountStatus(s string) (AccountStatus, error) {
	st := AccountStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusSuspended, StatusClosed:
		return st, nil
	}
	return "", ErrValidation{Fields: map[string]string{"status": "unknown status " + s}}
}

// canBecome reports whether the lifecycle allows moving from s to next.
// CLOSED is terminal.
func (s AccountStatus) canBecome(next AccountStatus) bool {
	switch s {
	case StatusActive:
		return next == StatusSuspended || next == StatusClosed
	case StatusSuspended:
		return next == StatusActive || next == StatusClosed
	}
	return false
}

type TxnType string

const (
	TxnDeposit     TxnType = "DEPOSIT"
	TxnWithdrawal  TxnType = "WITHDRAWAL"
	TxnTransferIn  TxnType = "TRANSFER_IN"
	TxnTransferOut TxnType = "TRANSFER_OUT"
	TxnInterest    TxnType = "INTEREST"
)

// sign is +1 for types that credit the owning account, -1 for debits and 0
// for anything unknown.
func (t TxnType) sign() int {
	switch t {
	case TxnDeposit, TxnTransferIn, TxnInterest:
		return 1
	case TxnWithdrawal, TxnTransferOut:
		return -1
	}
	return 0
}

type Transaction struct {
	ID           string          `json:"transactionId"`
	Type         TxnType         `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
	FromAcct     string          `json:"fromAccount,omitempty"`
	ToAcct       string          `json:"toAccount,omitempty"`
}

type Account struct {
	AcctNum      string          `json:"accountNumber"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phoneNumber"`
	Type         AccountType     `json:"accountType"`
	Balance      decimal.Decimal `json:"balance"`
	PasswordHash string          `json:"passwordHash"`
	CreatedAt    time.Time       `json:"createdDate"`
	Status       AccountStatus   `json:"status"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Transactions []Transaction   `json:"transactions"`
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Post applies txn to the balance and appends it to the history. BalanceAfter
// is filled in from the new balance and Timestamp is clamped so the history
// never goes backwards in time. Nothing changes when an error is returned.
func (a *Account) Post(txn Transaction) (Transaction, error) {
	if !txn.Amount.IsPositive() {
		return Transaction{}, ErrValidation{Fields: map[string]string{"amount": "must be positive"}}
	}
	var next decimal.Decimal
	switch txn.Type.sign() {
	case 1:
		next = a.Balance.Add(txn.Amount)
	case -1:
		if a.Balance.LessThan(txn.Amount) {
			return Transaction{}, ErrInsufficientFunds{AcctNum: a.AcctNum, Balance: a.Balance, Amount: txn.Amount}
		}
		next = a.Balance.Sub(txn.Amount)
	default:
		return Transaction{}, ErrInvalidArgument{Reason: fmt.Sprintf("unknown transaction type %q", txn.Type)}
	}

	if n := len(a.Transactions); n > 0 {
		if last := a.Transactions[n-1].Timestamp; txn.Timestamp.Before(last) {
			txn.Timestamp = last
		}
	}
	txn.BalanceAfter = next
	a.Balance = next
	a.Transactions = append(a.Transactions, txn)
	return txn, nil
}

// Reconcile replays the history from a zero balance and checks that every
// BalanceAfter, and the final balance, agree with the replay.
func (a *Account) Reconcile() error {
	running := decimal.Zero
	var last time.Time
	for i, txn := range a.Transactions {
		if !txn.Amount.IsPositive() {
			return ErrReconcile{AcctNum: a.AcctNum, TxnID: txn.ID, Reason: "non-positive amount"}
		}
		switch txn.Type.sign() {
		case 1:
			running = running.Add(txn.Amount)
		case -1:
			running = running.Sub(txn.Amount)
		default:
			return ErrReconcile{AcctNum: a.AcctNum, TxnID: txn.ID, Reason: "unknown type " + string(txn.Type)}
		}
		if running.IsNegative() {
			return ErrReconcile{AcctNum: a.AcctNum, TxnID: txn.ID, Reason: "balance went negative"}
		}
		if !running.Equal(txn.BalanceAfter) {
			return ErrReconcile{
				AcctNum: a.AcctNum,
				TxnID:   txn.ID,
				Reason:  fmt.Sprintf("balanceAfter %s, replay gives %s", txn.BalanceAfter, running),
			}
		}
		if i > 0 && txn.Timestamp.Before(last) {
			return ErrReconcile{AcctNum: a.AcctNum, TxnID: txn.ID, Reason: "timestamp goes backwards"}
		}
		last = txn.Timestamp
	}
	if !running.Equal(a.Balance) {
		return ErrReconcile{
			AcctNum: a.AcctNum,
			Reason:  fmt.Sprintf("balance %s, replay gives %s", a.Balance, running),
		}
	}
	return nil
}

func (a *Account) Clone() *Account {
	cp := *a
	if a.Transactions != nil {
		cp.Transactions = make([]Transaction, len(a.Transactions))
		copy(cp.Transactions, a.Transactions)
	}
	return &cp
}
