package filebank

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type SeedAccount struct {
	FirstName      string `yaml:"first_name"`
	LastName       string `yaml:"last_name"`
	Email          string `yaml:"email"`
	Phone          string `yaml:"phone"`
	Type           string `yaml:"type"`
	InitialDeposit string `yaml:"initial_deposit"`
	Password       string `yaml:"password"`
	Status         string `yaml:"status"`
}

type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

func ReadSeedFile(path string) (*SeedFile, error) {
	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf SeedFile
	if err = yaml.Unmarshal(bits, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

// LocalHelper populates a ledger through the public service operations, for
// local development and tests.
type LocalHelper struct {
	Svc         Service
	Log         *zerolog.Logger
	Concurrency int
}

func NewLocalHelper(svc Service, log *zerolog.Logger) *LocalHelper {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &LocalHelper{Svc: svc, Log: log, Concurrency: 4}
}

func (s SeedAccount) request() (CreateAccountReq, error) {
	typ, err := ParseAccountType(s.Type)
	if err != nil {
		return CreateAccountReq{}, err
	}
	deposit := decimal.Zero
	if strings.TrimSpace(s.InitialDeposit) != "" {
		deposit, err = decimal.NewFromString(strings.TrimSpace(s.InitialDeposit))
		if err != nil {
			return CreateAccountReq{}, ErrValidation{Fields: map[string]string{"initial_deposit": "not a decimal"}}
		}
	}
	return CreateAccountReq{
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		Phone:          s.Phone,
		Type:           typ,
		InitialDeposit: deposit,
		Password:       s.Password,
	}, nil
}

// SeedAccounts creates every seed account and returns their account numbers
// keyed by email. Emails that are already registered are skipped, so seeding
// the same file twice is harmless.
func (lh *LocalHelper) SeedAccounts(ctx context.Context, seeds []SeedAccount) (map[string]string, error) {
	var (
		mu      sync.Mutex
		created = make(map[string]string, len(seeds))
	)
	g, gctx := errgroup.WithContext(ctx)
	if lh.Concurrency > 0 {
		g.SetLimit(lh.Concurrency)
	}
	for _, seed := range seeds {
		seed := seed
		g.Go(func() error {
			req, err := seed.request()
			if err != nil {
				return err
			}
			acct, err := lh.Svc.CreateAccount(gctx, req)
			if err != nil {
				var verr ErrValidation
				if errors.As(err, &verr) && verr.Fields["email"] == "already registered" {
					lh.Log.Info().Str("email", seed.Email).Msg("seed account already exists, skipping")
					return nil
				}
				return err
			}
			if seed.Status != "" {
				st, err := ParseAccountStatus(seed.Status)
				if err != nil {
					return err
				}
				if _, err = lh.Svc.SetStatus(gctx, StatusReq{AcctNum: acct.AcctNum, Status: st}); err != nil {
					return err
				}
			}
			mu.Lock()
			created[seed.Email] = acct.AcctNum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return created, err
	}
	return created, nil
}

// Reconcile replays every account's history and returns the accounts that do
// not add up.
func (lh *LocalHelper) Reconcile(ctx context.Context) (map[string]error, error) {
	accts, err := lh.Svc.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	bad := map[string]error{}
	for _, a := range accts {
		if err := a.Reconcile(); err != nil {
			bad[a.AcctNum] = err
		}
	}
	return bad, nil
}
