package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/filebank"
	"github.com/arhyth/filebank/mocks"
)

func newLedger(t *testing.T) filebank.Service {
	t.Helper()
	cfg := filebank.DefaultConfig()
	cfg.Store.Dir = filepath.Join(t.TempDir(), "BankData")
	cfg.Security.BcryptCost = 4
	svc, err := filebank.NewServiceFromConfig(&cfg, nil)
	require.Nil(t, err)
	return svc
}

func createdAcct(t *testing.T, out *bytes.Buffer) string {
	t.Helper()
	line := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(line, "created account "), line)
	out.Reset()
	return strings.TrimPrefix(line, "created account ")
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("create, move money and verify", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newLedger(tt)
		var out bytes.Buffer

		reqrd.Nil(run(ctx, svc, "create", []string{
			"-first", "Ada", "-last", "Lovelace", "-email", "ada@example.com",
			"-phone", "5551234567", "-type", "savings", "-deposit", "150", "-password", "Analytical1",
		}, &out))
		ada := createdAcct(tt, &out)
		reqrd.Nil(run(ctx, svc, "create", []string{
			"-first", "Bob", "-last", "Byte", "-email", "bob@example.com",
			"-phone", "5551234568", "-password", "Analytical1",
		}, &out))
		bob := createdAcct(tt, &out)

		reqrd.Nil(run(ctx, svc, "login", []string{"-acct", ada, "-password", "Analytical1"}, &out))
		as.Contains(out.String(), "welcome, Ada Lovelace")
		out.Reset()

		reqrd.Nil(run(ctx, svc, "transfer", []string{"-from", ada, "-to", bob, "-amount", "30"}, &out))
		as.Equal("balance 120.00\n", out.String())
		out.Reset()

		reqrd.Nil(run(ctx, svc, "show", []string{"-acct", bob}, &out))
		as.Contains(out.String(), "TRANSFER_IN")
		as.Contains(out.String(), "Transfer from Ada Lovelace")
		out.Reset()

		reqrd.Nil(run(ctx, svc, "verify", nil, &out))
		as.Equal("ledger reconciles\n", out.String())
	})

	t.Run("business errors surface unchanged", func(tt *testing.T) {
		as := assert.New(tt)
		svc := newLedger(tt)
		var out bytes.Buffer

		err := run(ctx, svc, "withdraw", []string{"-acct", "nope", "-amount", "1"}, &out)
		as.ErrorAs(err, &filebank.ErrNotFound{})
		err = run(ctx, svc, "deposit", []string{"-acct", "nope", "-amount", "lots"}, &out)
		as.ErrorAs(err, &filebank.ErrValidation{})
		err = run(ctx, svc, "login", []string{"-acct", "nope", "-password", "x"}, &out)
		as.ErrorIs(err, filebank.ErrNotAuthenticated)
		as.NotNil(run(ctx, svc, "launch", nil, &out))
	})

	t.Run("statement is written to the output file", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newLedger(tt)
		var out bytes.Buffer
		reqrd.Nil(run(ctx, svc, "create", []string{
			"-first", "Ada", "-last", "Lovelace", "-email", "ada@example.com",
			"-phone", "5551234567", "-deposit", "10", "-password", "Analytical1",
		}, &out))
		ada := createdAcct(tt, &out)

		dest := filepath.Join(tt.TempDir(), "ada.pdf")
		reqrd.Nil(run(ctx, svc, "statement", []string{"-acct", ada, "-out", dest, "-since", "2000-01-01"}, &out))
		bits, err := os.ReadFile(dest)
		reqrd.Nil(err)
		as.True(bytes.HasPrefix(bits, []byte("%PDF-")))

		missing := filepath.Join(tt.TempDir(), "missing.pdf")
		err = run(ctx, svc, "statement", []string{"-acct", "nope", "-out", missing}, &out)
		as.ErrorAs(err, &filebank.ErrNotFound{})
		as.NoFileExists(missing)
	})

	t.Run("verify lists mismatched accounts in order", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		drifted := func(acctNum string) *filebank.Account {
			return &filebank.Account{
				AcctNum: acctNum,
				Balance: decimal.NewFromInt(99),
				Transactions: []filebank.Transaction{
					{ID: "t-" + acctNum, Type: filebank.TxnDeposit, Amount: decimal.NewFromInt(10), BalanceAfter: decimal.NewFromInt(10)},
				},
			}
		}
		svc.EXPECT().ListAccounts(gomock.Any()).Return([]*filebank.Account{
			drifted("300"), drifted("100"), drifted("200"),
		}, nil).Times(5)

		var first string
		for i := 0; i < 5; i++ {
			var out bytes.Buffer
			err := run(ctx, svc, "verify", nil, &out)
			as.NotNil(err)
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			reqrd.Len(lines, 3)
			as.True(strings.HasPrefix(lines[0], "100: "), lines[0])
			as.True(strings.HasPrefix(lines[1], "200: "), lines[1])
			as.True(strings.HasPrefix(lines[2], "300: "), lines[2])
			if i == 0 {
				first = out.String()
			}
			as.Equal(first, out.String())
		}
	})
}
