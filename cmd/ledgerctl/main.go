package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/arhyth/filebank"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const usage = `usage: ledgerctl [-config file] <command> [flags]

commands:
  create     open a new account
  login      check an account number and password
  deposit    deposit cash
  withdraw   withdraw cash
  transfer   move funds between accounts
  show       print an account and its history
  accrue     credit monthly interest to all active accounts
  status     change an account's status
  rate       change an account's interest rate
  statement  write a PDF statement
  verify     replay every account's history
`

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "", "path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := filebank.LoadEnv(".env"); err != nil {
		logger.Fatal().Err(err).Msg("error loading .env")
	}
	cfg, err := filebank.LoadConfig(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	svc, err := filebank.NewServiceFromConfig(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting ledger")
	}

	ctx := context.Background()
	if err = run(ctx, svc, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc filebank.Service, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	switch cmd {
	case "create":
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		email := fs.String("email", "", "email address")
		phone := fs.String("phone", "", "phone number")
		typ := fs.String("type", "SAVINGS", "SAVINGS, CHECKING or PREMIUM")
		deposit := fs.String("deposit", "0", "initial deposit")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		acctType, err := filebank.ParseAccountType(*typ)
		if err != nil {
			return err
		}
		amount, err := parseAmount(*deposit)
		if err != nil {
			return err
		}
		acct, err := svc.CreateAccount(ctx, filebank.CreateAccountReq{
			FirstName:      *first,
			LastName:       *last,
			Email:          *email,
			Phone:          *phone,
			Type:           acctType,
			InitialDeposit: amount,
			Password:       *password,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created account %s\n", acct.AcctNum)
		return nil

	case "login":
		acct := fs.String("acct", "", "account number")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := svc.Authenticate(ctx, filebank.AuthReq{AcctNum: *acct, Password: *password})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "welcome, %s\n", a.FullName())
		return nil

	case "deposit", "withdraw":
		acct := fs.String("acct", "", "account number")
		amt := fs.String("amount", "", "amount")
		if err := fs.Parse(args); err != nil {
			return err
		}
		amount, err := parseAmount(*amt)
		if err != nil {
			return err
		}
		req := filebank.ChargeReq{AcctNum: *acct, Amount: amount}
		var bal *decimal.Decimal
		if cmd == "deposit" {
			bal, err = svc.Deposit(ctx, req)
		} else {
			bal, err = svc.Withdraw(ctx, req)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "balance %s\n", bal.StringFixed(2))
		return nil

	case "transfer":
		from := fs.String("from", "", "source account number")
		to := fs.String("to", "", "destination account number")
		amt := fs.String("amount", "", "amount")
		if err := fs.Parse(args); err != nil {
			return err
		}
		amount, err := parseAmount(*amt)
		if err != nil {
			return err
		}
		bal, err := svc.Transfer(ctx, filebank.TransferReq{FromAcct: *from, ToAcct: *to, Amount: amount})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "balance %s\n", bal.StringFixed(2))
		return nil

	case "show":
		acct := fs.String("acct", "", "account number")
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := svc.GetAccount(ctx, *acct)
		if err != nil {
			return err
		}
		printAccount(out, a)
		return nil

	case "accrue":
		if err := fs.Parse(args); err != nil {
			return err
		}
		n, err := svc.AccrueInterest(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "credited interest to %d accounts\n", n)
		return nil

	case "status":
		acct := fs.String("acct", "", "account number")
		status := fs.String("status", "", "ACTIVE, SUSPENDED or CLOSED")
		if err := fs.Parse(args); err != nil {
			return err
		}
		st, err := filebank.ParseAccountStatus(*status)
		if err != nil {
			return err
		}
		a, err := svc.SetStatus(ctx, filebank.StatusReq{AcctNum: *acct, Status: st})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "account %s is %s\n", a.AcctNum, a.Status)
		return nil

	case "rate":
		acct := fs.String("acct", "", "account number")
		rate := fs.String("rate", "", "annual rate, e.g. 0.025")
		if err := fs.Parse(args); err != nil {
			return err
		}
		r, err := decimal.NewFromString(*rate)
		if err != nil {
			return filebank.ErrValidation{Fields: map[string]string{"rate": "not a decimal"}}
		}
		a, err := svc.SetInterestRate(ctx, filebank.RateReq{AcctNum: *acct, Rate: r})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "account %s rate %s\n", a.AcctNum, a.InterestRate)
		return nil

	case "statement":
		acct := fs.String("acct", "", "account number")
		dest := fs.String("out", "statement.pdf", "output file")
		since := fs.String("since", "", "first day to include, YYYY-MM-DD")
		if err := fs.Parse(args); err != nil {
			return err
		}
		req := filebank.StatementReq{AcctNum: *acct}
		if *since != "" {
			t, err := time.Parse(time.DateOnly, *since)
			if err != nil {
				return filebank.ErrValidation{Fields: map[string]string{"since": "expected YYYY-MM-DD"}}
			}
			req.Since = t
		}
		f, err := os.Create(*dest)
		if err != nil {
			return err
		}
		if err = svc.Statement(ctx, f, req); err != nil {
			f.Close()
			os.Remove(*dest)
			return err
		}
		if err = f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", *dest)
		return nil

	case "verify":
		if err := fs.Parse(args); err != nil {
			return err
		}
		bad, err := filebank.NewLocalHelper(svc, nil).Reconcile(ctx)
		if err != nil {
			return err
		}
		accts := make([]string, 0, len(bad))
		for acct := range bad {
			accts = append(accts, acct)
		}
		sort.Strings(accts)
		for _, acct := range accts {
			fmt.Fprintf(out, "%s: %v\n", acct, bad[acct])
		}
		if len(bad) > 0 {
			return errors.New("ledger does not reconcile")
		}
		fmt.Fprintln(out, "ledger reconciles")
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, filebank.ErrValidation{Fields: map[string]string{"amount": "not a decimal"}}
	}
	return d, nil
}

func printAccount(out io.Writer, a *filebank.Account) {
	fmt.Fprintf(out, "Account: %s | Type: %s | Status: %s\n", a.AcctNum, a.Type, a.Status)
	fmt.Fprintf(out, "Holder:  %s <%s> %s\n", a.FullName(), a.Email, a.Phone)
	fmt.Fprintf(out, "Balance: %s (rate %s%%)\n\n", a.Balance.StringFixed(2), a.InterestRate.Shift(2).StringFixed(2))

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tBALANCE\tDESCRIPTION")
	for _, t := range a.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04"),
			t.Type,
			t.Amount.StringFixed(2),
			t.BalanceAfter.StringFixed(2),
			t.Description)
	}
	tw.Flush()
}
