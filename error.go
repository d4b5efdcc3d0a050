package filebank

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInternal = errors.New("internal error")
	// ErrNotAuthenticated is returned for every failed login, whatever the cause.
	ErrNotAuthenticated = errors.New("invalid account number or password")
	ErrBusy             = errors.New("too many in-flight requests")
	ErrUnavailable      = errors.New("ledger temporarily unavailable")
)

type ErrValidation struct {
	Fields map[string]string
}

func (e ErrValidation) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "missing/invalid params: " + strings.Join(parts, ", ")
}

type ErrNotFound struct {
	AcctNum string `json:"accountNumber"`
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("account %q not found", e.AcctNum)
}

type ErrInvalidState struct {
	AcctNum string
	Status  AccountStatus
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("account %s is %s", e.AcctNum, e.Status)
}

type ErrInsufficientFunds struct {
	AcctNum string
	Balance decimal.Decimal
	Amount  decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds in account %s: balance %s, requested %s",
		e.AcctNum, e.Balance.StringFixed(2), e.Amount.StringFixed(2))
}

type ErrInvalidArgument struct {
	Reason string
}

func (e ErrInvalidArgument) Error() string {
	return "invalid argument: " + e.Reason
}

// ErrStoreIO reports storage that could not be read or written.
type ErrStoreIO struct {
	Op   string
	Path string
	Err  error
}

func (e ErrStoreIO) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e ErrStoreIO) Unwrap() error { return e.Err }

// ErrStoreCorrupt reports a snapshot that exists but cannot be parsed.
type ErrStoreCorrupt struct {
	Path string
	Err  error
}

func (e ErrStoreCorrupt) Error() string {
	return fmt.Sprintf("store snapshot %s is corrupt: %v", e.Path, e.Err)
}

func (e ErrStoreCorrupt) Unwrap() error { return e.Err }

type ErrReconcile struct {
	AcctNum string
	TxnID   string
	Reason  string
}

func (e ErrReconcile) Error() string {
	if e.TxnID == "" {
		return fmt.Sprintf("account %s does not reconcile: %s", e.AcctNum, e.Reason)
	}
	return fmt.Sprintf("account %s does not reconcile at %s: %s", e.AcctNum, e.TxnID, e.Reason)
}

// isStoreErr reports whether err originated in the storage layer.
func isStoreErr(err error) bool {
	return errors.As(err, &ErrStoreIO{}) || errors.As(err, &ErrStoreCorrupt{})
}
