package filebank

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	maxAcctNumAttempts = 5
	dummyPassword      = "Filebank-dummy-0"
)

type CreateAccountReq struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Type           AccountType
	InitialDeposit decimal.Decimal
	Password       string
}

type AuthReq struct {
	AcctNum  string
	Password string
}

type ChargeReq struct {
	AcctNum string          `json:"accountNumber"`
	Amount  decimal.Decimal `json:"amount"`
}

type TransferReq struct {
	FromAcct string          `json:"fromAccount"`
	ToAcct   string          `json:"toAccount"`
	Amount   decimal.Decimal `json:"amount"`
}

type StatusReq struct {
	AcctNum string
	Status  AccountStatus
}

type RateReq struct {
	AcctNum string
	Rate    decimal.Decimal
}

type StatementReq struct {
	AcctNum string
	// Since limits the statement to transactions at or after it; zero means all.
	Since time.Time
}

type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error)
	Authenticate(ctx context.Context, req AuthReq) (*Account, error)
	Deposit(ctx context.Context, req ChargeReq) (*decimal.Decimal, error)
	Withdraw(ctx context.Context, req ChargeReq) (*decimal.Decimal, error)
	Transfer(ctx context.Context, req TransferReq) (*decimal.Decimal, error)
	GetAccount(ctx context.Context, acctNum string) (*Account, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	AccrueInterest(ctx context.Context) (int, error)
	SetStatus(ctx context.Context, req StatusReq) (*Account, error)
	SetInterestRate(ctx context.Context, req RateReq) (*Account, error)
	Statement(ctx context.Context, w io.Writer, req StatementReq) error
}

// Collaborators are the pluggable capabilities the service consumes. Nil
// fields get the package defaults.
type Collaborators struct {
	Validator Validator
	Hasher    Hasher
	IDs       IDGenerator
	Clock     func() time.Time
}

var (
	_ Service = (*serviceImpl)(nil)
)

func NewService(repo Repository, collab Collaborators, log *zerolog.Logger) (*serviceImpl, error) {
	if repo == nil {
		return nil, ErrInvalidArgument{Reason: "nil repository"}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if collab.Validator == nil {
		collab.Validator = RuleValidator{}
	}
	if collab.Hasher == nil {
		collab.Hasher = NewBcryptHasher(0)
	}
	if collab.IDs == nil {
		ids, err := NewSnowflakeIDs(1)
		if err != nil {
			return nil, err
		}
		collab.IDs = ids
	}
	if collab.Clock == nil {
		collab.Clock = time.Now
	}
	dummy, err := collab.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	return &serviceImpl{
		repo:      repo,
		validator: collab.Validator,
		hasher:    collab.Hasher,
		ids:       collab.IDs,
		clock:     collab.Clock,
		log:       log,
		dummyHash: dummy,
	}, nil
}

type serviceImpl struct {
	repo      Repository
	validator Validator
	hasher    Hasher
	ids       IDGenerator
	clock     func() time.Time
	log       *zerolog.Logger
	dummyHash string

	// mu is the transaction boundary: every load-mutate-save runs under it.
	// The repository rewrites the whole ledger on save, so anything finer
	// than ledger-wide would still lose updates.
	mu sync.Mutex
}

// ledger is one loaded working copy of the account collection.
type ledger struct {
	accts []*Account
	byNum map[string]*Account
}

func newLedger(accts []*Account) *ledger {
	l := &ledger{accts: accts, byNum: make(map[string]*Account, len(accts))}
	for _, a := range accts {
		if _, dup := l.byNum[a.AcctNum]; !dup {
			l.byNum[a.AcctNum] = a
		}
	}
	return l
}

func (l *ledger) find(acctNum string) (*Account, bool) {
	a, ok := l.byNum[acctNum]
	return a, ok
}

func (l *ledger) emailTaken(email string) bool {
	for _, a := range l.accts {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

func (l *ledger) add(a *Account) {
	l.accts = append(l.accts, a)
	l.byNum[a.AcctNum] = a
}

// commit runs fn against a freshly loaded ledger and saves it when fn reports
// a change. A failed save discards every mutation fn made.
func (s *serviceImpl) commit(op string, fn func(l *ledger) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accts, err := s.repo.LoadAll()
	if err != nil {
		s.log.Err(err).Str("op", op).Msg("error loading ledger")
		return err
	}
	l := newLedger(accts)
	dirty, err := fn(l)
	if err != nil || !dirty {
		return err
	}
	if err = s.repo.SaveAll(l.accts); err != nil {
		s.log.Err(err).Str("op", op).Msg("error saving ledger")
		return err
	}
	return nil
}

func (s *serviceImpl) load() (*ledger, error) {
	accts, err := s.repo.LoadAll()
	if err != nil {
		s.log.Err(err).Msg("error loading ledger")
		return nil, err
	}
	return newLedger(accts), nil
}

func (s *serviceImpl) newTxn(typ TxnType, amount decimal.Decimal, desc string) Transaction {
	return Transaction{
		ID:          s.ids.NewTransactionID(),
		Type:        typ,
		Amount:      amount,
		Timestamp:   s.clock().UTC(),
		Description: desc,
	}
}

// checkAmount returns a validation message for amt, or "" when acceptable.
func checkAmount(amt decimal.Decimal, allowZero bool) string {
	switch {
	case amt.IsNegative():
		return "cannot be negative"
	case amt.IsZero() && !allowZero:
		return "must be positive"
	case !amt.Equal(amt.Truncate(2)):
		return "at most 2 decimal places"
	}
	return ""
}

func (s *serviceImpl) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.FirstName) == "" {
		fields["firstName"] = "required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["lastName"] = "required"
	}
	if !s.validator.IsValidEmail(req.Email) {
		fields["email"] = "invalid format"
	}
	if !s.validator.IsValidPhone(req.Phone) {
		fields["phoneNumber"] = "invalid format"
	}
	if !s.validator.IsValidPassword(req.Password) {
		fields["password"] = "must be at least 8 characters with uppercase, lowercase and digits"
	}
	if !req.Type.Valid() {
		fields["accountType"] = "unknown account type"
	}
	if msg := checkAmount(req.InitialDeposit, true); msg != "" {
		fields["initialDeposit"] = msg
	}
	if len(fields) > 0 {
		return nil, ErrValidation{Fields: fields}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Err(err).Msg("error hashing password")
		return nil, ErrInternal
	}

	var created *Account
	err = s.commit("create_account", func(l *ledger) (bool, error) {
		if l.emailTaken(strings.TrimSpace(req.Email)) {
			return false, ErrValidation{Fields: map[string]string{"email": "already registered"}}
		}
		acctNum := ""
		for i := 0; i < maxAcctNumAttempts; i++ {
			candidate := s.ids.NewAccountNumber()
			if _, taken := l.find(candidate); !taken && candidate != "" {
				acctNum = candidate
				break
			}
		}
		if acctNum == "" {
			s.log.Error().Msg("could not generate a unique account number")
			return false, ErrInternal
		}

		acct := &Account{
			AcctNum:      acctNum,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        strings.TrimSpace(req.Email),
			Phone:        strings.TrimSpace(req.Phone),
			Type:         req.Type,
			Balance:      decimal.Zero,
			PasswordHash: hash,
			CreatedAt:    s.clock().UTC(),
			Status:       StatusActive,
			InterestRate: req.Type.DefaultInterestRate(),
			Transactions: []Transaction{},
		}
		if req.InitialDeposit.IsPositive() {
			if _, err := acct.Post(s.newTxn(TxnDeposit, req.InitialDeposit, "Initial deposit")); err != nil {
				return false, err
			}
		}
		l.add(acct)
		created = acct
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("op", "create_account").
		Str("acct", created.AcctNum).
		Str("type", string(created.Type)).
		Str("balance", created.Balance.StringFixed(2)).
		Msg("account created")
	return created.Clone(), nil
}

// Authenticate never tells callers why a login failed. Unknown accounts are
// verified against a dummy hash so every path pays the same hashing cost.
func (s *serviceImpl) Authenticate(ctx context.Context, req AuthReq) (*Account, error) {
	l, err := s.load()
	if err != nil {
		return nil, err
	}
	acct, found := l.find(req.AcctNum)
	hash := s.dummyHash
	if found {
		hash = acct.PasswordHash
	}
	verified := s.hasher.Verify(req.Password, hash)
	if !found || !verified || !acct.IsActive() {
		return nil, ErrNotAuthenticated
	}
	return acct.Clone(), nil
}

func (s *serviceImpl) Deposit(ctx context.Context, req ChargeReq) (*decimal.Decimal, error) {
	if msg := checkAmount(req.Amount, false); msg != "" {
		return nil, ErrValidation{Fields: map[string]string{"amount": msg}}
	}

	var bal decimal.Decimal
	err := s.commit("deposit", func(l *ledger) (bool, error) {
		acct, ok := l.find(req.AcctNum)
		if !ok {
			return false, ErrNotFound{AcctNum: req.AcctNum}
		}
		if !acct.IsActive() {
			return false, ErrInvalidState{AcctNum: acct.AcctNum, Status: acct.Status}
		}
		if _, err := acct.Post(s.newTxn(TxnDeposit, req.Amount, "Cash deposit")); err != nil {
			return false, err
		}
		bal = acct.Balance
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("op", "deposit").Str("acct", req.AcctNum).Str("amount", req.Amount.StringFixed(2)).Msg("committed")
	return &bal, nil
}

func (s *serviceImpl) Withdraw(ctx context.Context, req ChargeReq) (*decimal.Decimal, error) {
	if msg := checkAmount(req.Amount, false); msg != "" {
		return nil, ErrValidation{Fields: map[string]string{"amount": msg}}
	}

	var bal decimal.Decimal
	err := s.commit("withdraw", func(l *ledger) (bool, error) {
		acct, ok := l.find(req.AcctNum)
		if !ok {
			return false, ErrNotFound{AcctNum: req.AcctNum}
		}
		if !acct.IsActive() {
			return false, ErrInvalidState{AcctNum: acct.AcctNum, Status: acct.Status}
		}
		if _, err := acct.Post(s.newTxn(TxnWithdrawal, req.Amount, "Cash withdrawal")); err != nil {
			return false, err
		}
		bal = acct.Balance
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("op", "withdraw").Str("acct", req.AcctNum).Str("amount", req.Amount.StringFixed(2)).Msg("committed")
	return &bal, nil
}

// Transfer moves funds between two active accounts and returns the source's
// new balance. Both legs are saved together or not at all.
func (s *serviceImpl) Transfer(ctx context.Context, req TransferReq) (*decimal.Decimal, error) {
	if msg := checkAmount(req.Amount, false); msg != "" {
		return nil, ErrValidation{Fields: map[string]string{"amount": msg}}
	}
	if req.FromAcct == req.ToAcct {
		return nil, ErrInvalidArgument{Reason: "cannot transfer to the same account"}
	}

	var bal decimal.Decimal
	err := s.commit("transfer", func(l *ledger) (bool, error) {
		from, ok := l.find(req.FromAcct)
		if !ok {
			return false, ErrNotFound{AcctNum: req.FromAcct}
		}
		to, ok := l.find(req.ToAcct)
		if !ok {
			return false, ErrNotFound{AcctNum: req.ToAcct}
		}
		if !from.IsActive() {
			return false, ErrInvalidState{AcctNum: from.AcctNum, Status: from.Status}
		}
		if !to.IsActive() {
			return false, ErrInvalidState{AcctNum: to.AcctNum, Status: to.Status}
		}
		if from.Balance.LessThan(req.Amount) {
			return false, ErrInsufficientFunds{AcctNum: from.AcctNum, Balance: from.Balance, Amount: req.Amount}
		}

		out := s.newTxn(TxnTransferOut, req.Amount, "Transfer to "+to.FullName())
		out.ToAcct = to.AcctNum
		if _, err := from.Post(out); err != nil {
			return false, err
		}
		in := s.newTxn(TxnTransferIn, req.Amount, "Transfer from "+from.FullName())
		in.FromAcct = from.AcctNum
		if _, err := to.Post(in); err != nil {
			return false, err
		}
		bal = from.Balance
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("op", "transfer").
		Str("from", req.FromAcct).
		Str("to", req.ToAcct).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("committed")
	return &bal, nil
}

func (s *serviceImpl) GetAccount(ctx context.Context, acctNum string) (*Account, error) {
	l, err := s.load()
	if err != nil {
		return nil, err
	}
	acct, ok := l.find(acctNum)
	if !ok {
		return nil, ErrNotFound{AcctNum: acctNum}
	}
	return acct.Clone(), nil
}

func (s *serviceImpl) ListAccounts(ctx context.Context) ([]*Account, error) {
	l, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*Account, len(l.accts))
	for i, a := range l.accts {
		out[i] = a.Clone()
	}
	return out, nil
}

var monthsPerYear = decimal.NewFromInt(12)

// AccrueInterest credits one month of interest to every active account with a
// positive balance and returns how many accounts were credited. Interest is
// rounded half-even to cents; accounts whose interest rounds to zero are
// skipped. The batch is saved once, and not at all when nothing qualifies.
func (s *serviceImpl) AccrueInterest(ctx context.Context) (int, error) {
	credited := 0
	err := s.commit("accrue_interest", func(l *ledger) (bool, error) {
		for _, acct := range l.accts {
			if !acct.IsActive() || !acct.Balance.IsPositive() {
				continue
			}
			interest := acct.Balance.Mul(acct.InterestRate).Div(monthsPerYear).RoundBank(2)
			if !interest.IsPositive() {
				continue
			}
			if _, err := acct.Post(s.newTxn(TxnInterest, interest, "Monthly interest credit")); err != nil {
				return false, err
			}
			credited++
		}
		return credited > 0, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Str("op", "accrue_interest").Int("accounts", credited).Msg("committed")
	return credited, nil
}

func (s *serviceImpl) SetStatus(ctx context.Context, req StatusReq) (*Account, error) {
	st, err := ParseAccountStatus(string(req.Status))
	if err != nil {
		return nil, err
	}
	req.Status = st

	var updated *Account
	err = s.commit("set_status", func(l *ledger) (bool, error) {
		acct, ok := l.find(req.AcctNum)
		if !ok {
			return false, ErrNotFound{AcctNum: req.AcctNum}
		}
		updated = acct
		if acct.Status == req.Status {
			return false, nil
		}
		if !acct.Status.canBecome(req.Status) {
			return false, ErrInvalidState{AcctNum: acct.AcctNum, Status: acct.Status}
		}
		acct.Status = req.Status
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("op", "set_status").Str("acct", req.AcctNum).Str("status", string(req.Status)).Msg("committed")
	return updated.Clone(), nil
}

var maxRate = decimal.NewFromInt(1)

func (s *serviceImpl) SetInterestRate(ctx context.Context, req RateReq) (*Account, error) {
	if req.Rate.IsNegative() || req.Rate.GreaterThan(maxRate) {
		return nil, ErrValidation{Fields: map[string]string{"interestRate": "must be between 0 and 1"}}
	}

	var updated *Account
	err := s.commit("set_interest_rate", func(l *ledger) (bool, error) {
		acct, ok := l.find(req.AcctNum)
		if !ok {
			return false, ErrNotFound{AcctNum: req.AcctNum}
		}
		updated = acct
		if acct.InterestRate.Equal(req.Rate) {
			return false, nil
		}
		acct.InterestRate = req.Rate
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("op", "set_interest_rate").Str("acct", req.AcctNum).Str("rate", req.Rate.String()).Msg("committed")
	return updated.Clone(), nil
}

func (s *serviceImpl) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	acct, err := s.GetAccount(ctx, req.AcctNum)
	if err != nil {
		return err
	}
	if err = writeStatement(w, acct, req.Since, s.clock()); err != nil {
		s.log.Err(err).Str("acct", req.AcctNum).Msg("error rendering statement")
		return err
	}
	return nil
}
