package filebank

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

// Chain wraps svc so that the first middleware is the outermost.
func Chain(svc Service, mws ...Middleware) Service {
	for i := len(mws) - 1; i >= 0; i-- {
		svc = mws[i](svc)
	}
	return svc
}

//
// Rate limiting middlewares
//

// limitMiddleware bounds the number of in-flight calls per operation with a
// weighted semaphore. Callers that cannot get a slot before the acquisition
// timeout (or their own deadline) are shed with ErrBusy.
type limitMiddleware struct {
	next   Service
	limits *ServiceLimits
}

var (
	_ Service = (*limitMiddleware)(nil)
)

// ServiceLimits holds one semaphore per operation group. A nil semaphore
// leaves that group unlimited.
type ServiceLimits struct {
	CreateAccount  *semaphore.Weighted
	Authenticate   *semaphore.Weighted
	Deposit        *semaphore.Weighted
	Withdraw       *semaphore.Weighted
	Transfer       *semaphore.Weighted
	Read           *semaphore.Weighted
	AccrueInterest *semaphore.Weighted
	Admin          *semaphore.Weighted
	Statement      *semaphore.Weighted
	Timeout        time.Duration
}

func NewServiceLimits(cfg LimitsConfig) *ServiceLimits {
	n := cfg.MaxInFlight
	return &ServiceLimits{
		CreateAccount:  semaphore.NewWeighted(n),
		Authenticate:   semaphore.NewWeighted(n),
		Deposit:        semaphore.NewWeighted(n),
		Withdraw:       semaphore.NewWeighted(n),
		Transfer:       semaphore.NewWeighted(n),
		Read:           semaphore.NewWeighted(n),
		AccrueInterest: semaphore.NewWeighted(1),
		Admin:          semaphore.NewWeighted(n),
		Statement:      semaphore.NewWeighted(n),
		Timeout:        cfg.AcquireTimeout,
	}
}

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:   next,
			limits: limits,
		}
	}
}

func (l *limitMiddleware) acquire(ctx context.Context, sem *semaphore.Weighted) (func(), error) {
	if sem == nil {
		return func() {}, nil
	}
	if l.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.limits.Timeout)
		defer cancel()
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, ErrBusy
	}
	return func() { sem.Release(1) }, nil
}

func (l *limitMiddleware) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	release, err := l.acquire(ctx, l.limits.CreateAccount)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.CreateAccount(ctx, req)
}

func (l *limitMiddleware) Authenticate(ctx context.Context, req AuthReq) (*Account, error) {
	release, err := l.acquire(ctx, l.limits.Authenticate)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Authenticate(ctx, req)
}

func (l *limitMiddleware) Deposit(ctx context.Context, req ChargeReq) (*decimal.Decimal, error) {
	release, err := l.acquire(ctx, l.limits.Deposit)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Deposit(ctx, req)
}

func (l *limitMiddleware) Withdraw(ctx context.Context, req ChargeReq) (*decimal.Decimal, error) {
	release, err := l.acquire(ctx, l.limits.Withdraw)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Withdraw(ctx, req)
}

func (l *limitMiddleware) Transfer(ctx context.Context, req TransferReq) (*decimal.Decimal, error) {
	release, err := l.acquire(ctx, l.limits.Transfer)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Transfer(ctx, req)
}

func (l *limitMiddleware) GetAccount(ctx context.Context, acctNum string) (*Account, error) {
	release, err := l.acquire(ctx, l.limits.Read)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.GetAccount(ctx, acctNum)
}

func (l *limitMiddleware) ListAccounts(ctx context.Context) ([]*Account, error) {
	release, err := l.acquire(ctx, l.limits.Read)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.ListAccounts(ctx)
}

func (l *limitMiddleware) AccrueInterest(ctx context.Context) (int, error) {
	release, err := l.acquire(ctx, l.limits.AccrueInterest)
	if err != nil {
		return 0, err
	}
	defer release()
	return l.next.AccrueInterest(ctx)
}

func (l *limitMiddleware) SetStatus(ctx context.Context, req StatusReq) (*Account, error) {
	release, err := l.acquire(ctx, l.limits.Admin)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.SetStatus(ctx, req)
}

func (l *limitMiddleware) SetInterestRate(ctx context.Context, req RateReq) (*Account, error) {
	release, err := l.acquire(ctx, l.limits.Admin)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.SetInterestRate(ctx, req)
}

func (l *limitMiddleware) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	release, err := l.acquire(ctx, l.limits.Statement)
	if err != nil {
		return err
	}
	defer release()
	return l.next.Statement(ctx, w, req)
}

// ServiceBreaker holds one breaker per mutating operation. Reads pass through
// unguarded. A nil breaker disables protection for that operation.
type ServiceBreaker struct {
	CreateAccount  *gobreaker.CircuitBreaker[*Account]
	Deposit        *gobreaker.CircuitBreaker[*decimal.Decimal]
	Withdraw       *gobreaker.CircuitBreaker[*decimal.Decimal]
	Transfer       *gobreaker.CircuitBreaker[*decimal.Decimal]
	AccrueInterest *gobreaker.CircuitBreaker[int]
	Admin          *gobreaker.CircuitBreaker[*Account]
}

// NewServiceBreaker builds breakers that trip after cfg.ConsecutiveFailures
// storage failures in a row. Business errors such as insufficient funds count
// as successes: they say nothing about the health of the store.
func NewServiceBreaker(cfg BreakerConfig, log *zerolog.Logger) *ServiceBreaker {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.HalfOpenRequests,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !isStoreErr(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		}
	}
	return &ServiceBreaker{
		CreateAccount:  gobreaker.NewCircuitBreaker[*Account](settings("create_account")),
		Deposit:        gobreaker.NewCircuitBreaker[*decimal.Decimal](settings("deposit")),
		Withdraw:       gobreaker.NewCircuitBreaker[*decimal.Decimal](settings("withdraw")),
		Transfer:       gobreaker.NewCircuitBreaker[*decimal.Decimal](settings("transfer")),
		AccrueInterest: gobreaker.NewCircuitBreaker[int](settings("accrue_interest")),
		Admin:          gobreaker.NewCircuitBreaker[*Account](settings("admin")),
	}
}

// circuitBreakMiddleware fails mutating calls fast with ErrUnavailable while
// the store keeps failing, instead of queueing more writes behind a broken
// disk.
type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

func execute[T any](cb *gobreaker.CircuitBreaker[T], fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	res, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return res, ErrUnavailable
	}
	return res, err
}

func (c *circuitBreakMiddleware) CreateAccount(ctx context.Context, req CreateAccountReq) (*Account, error) {
	return execute(c.brkrs.CreateAccount, func() (*Account, error) {
		return c.next.CreateAccount(ctx, req)
	})
}

func (c *circuitBreakMiddleware) Authenticate(ctx context.Context, req AuthReq) (*Account, error) {
	return c.next.Authenticate(ctx, req)
}

func (c *circuitBreakMiddleware) Deposit(ctx context.Context, req ChargeReq) (*decimal.Decimal, error) {
	return execute(c.brkrs.Deposit, func() (*decimal.Decimal, error) {
		return c.next.Deposit(ctx, req)
	})
}

func (c *circuitBreakMiddleware) Withdraw(ctx context.Context, req ChargeReq) (*decimal.Decimal, error) {
	return execute(c.brkrs.Withdraw, func() (*decimal.Decimal, error) {
		return c.next.Withdraw(ctx, req)
	})
}

func (c *circuitBreakMiddleware) Transfer(ctx context.Context, req TransferReq) (*decimal.Decimal, error) {
	return execute(c.brkrs.Transfer, func() (*decimal.Decimal, error) {
		return c.next.Transfer(ctx, req)
	})
}

func (c *circuitBreakMiddleware) GetAccount(ctx context.Context, acctNum string) (*Account, error) {
	return c.next.GetAccount(ctx, acctNum)
}

func (c *circuitBreakMiddleware) ListAccounts(ctx context.Context) ([]*Account, error) {
	return c.next.ListAccounts(ctx)
}

func (c *circuitBreakMiddleware) AccrueInterest(ctx context.Context) (int, error) {
	return execute(c.brkrs.AccrueInterest, func() (int, error) {
		return c.next.AccrueInterest(ctx)
	})
}

func (c *circuitBreakMiddleware) SetStatus(ctx context.Context, req StatusReq) (*Account, error) {
	return execute(c.brkrs.Admin, func() (*Account, error) {
		return c.next.SetStatus(ctx, req)
	})
}

func (c *circuitBreakMiddleware) SetInterestRate(ctx context.Context, req RateReq) (*Account, error) {
	return execute(c.brkrs.Admin, func() (*Account, error) {
		return c.next.SetInterestRate(ctx, req)
	})
}

func (c *circuitBreakMiddleware) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	return c.next.Statement(ctx, w, req)
}
