package filebank_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/filebank"
	"github.com/arhyth/filebank/mocks"
)

func TestLocalHelperSeedAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds every account in the file", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		seeds, err := filebank.ReadSeedFile("testdata/seed_accounts.yml")
		reqrd.Nil(err)
		reqrd.Len(seeds.Accounts, 3)

		svc := newTestService(tt, newTestStore(tt))
		lh := filebank.NewLocalHelper(svc, nil)
		created, err := lh.SeedAccounts(ctx, seeds.Accounts)
		reqrd.Nil(err)
		reqrd.Len(created, 3)

		ada, err := svc.GetAccount(ctx, created["ada@example.com"])
		reqrd.Nil(err)
		as.Equal(filebank.AcctSavings, ada.Type)
		as.Equal("1200.00", ada.Balance.StringFixed(2))

		grace, err := svc.GetAccount(ctx, created["grace@example.com"])
		reqrd.Nil(err)
		as.Equal(filebank.AcctChecking, grace.Type)
		as.Equal("0.01", grace.InterestRate.String())

		alan, err := svc.GetAccount(ctx, created["alan@example.com"])
		reqrd.Nil(err)
		as.Equal(filebank.StatusSuspended, alan.Status)
		as.True(alan.Balance.IsZero())
	})

	t.Run("reseeding skips registered emails", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		seeds, err := filebank.ReadSeedFile("testdata/seed_accounts.yml")
		reqrd.Nil(err)
		svc := newTestService(tt, newTestStore(tt))
		lh := filebank.NewLocalHelper(svc, nil)

		_, err = lh.SeedAccounts(ctx, seeds.Accounts)
		reqrd.Nil(err)
		again, err := lh.SeedAccounts(ctx, seeds.Accounts)
		as.Nil(err)
		as.Empty(again)

		accts, err := svc.ListAccounts(ctx)
		as.Nil(err)
		as.Len(accts, 3)
	})

	t.Run("a bad seed fails the run", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		lh := filebank.NewLocalHelper(mocks.NewMockService(ctrl), nil)
		_, err := lh.SeedAccounts(ctx, []filebank.SeedAccount{{Email: "x@example.com", Type: "BROKERAGE"}})
		as.ErrorAs(err, &filebank.ErrValidation{})
	})

	t.Run("missing seed file", func(tt *testing.T) {
		_, err := filebank.ReadSeedFile("testdata/nope.yml")
		assert.NotNil(tt, err)
	})
}

func TestLocalHelperReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("reports accounts whose history does not add up", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().ListAccounts(gomock.Any()).Return([]*filebank.Account{
			{
				AcctNum: "good",
				Balance: dec("10"),
				Transactions: []filebank.Transaction{
					{ID: "t1", Type: filebank.TxnDeposit, Amount: dec("10"), BalanceAfter: dec("10")},
				},
			},
			{
				AcctNum: "bad",
				Balance: dec("99"),
				Transactions: []filebank.Transaction{
					{ID: "t2", Type: filebank.TxnDeposit, Amount: dec("10"), BalanceAfter: dec("10")},
				},
			},
		}, nil)

		bad, err := filebank.NewLocalHelper(svc, nil).Reconcile(ctx)
		reqrd.Nil(err)
		reqrd.Len(bad, 1)
		as.ErrorAs(bad["bad"], &filebank.ErrReconcile{})
	})

	t.Run("a ledger built through the service reconciles", func(tt *testing.T) {
		as := assert.New(tt)
		svc := newTestService(tt, newTestStore(tt))
		a := mustCreate(tt, svc, "ada", "100")
		b := mustCreate(tt, svc, "bob", "5")
		_, err := svc.Transfer(ctx, filebank.TransferReq{FromAcct: a.AcctNum, ToAcct: b.AcctNum, Amount: dec("40")})
		as.Nil(err)
		_, err = svc.AccrueInterest(ctx)
		as.Nil(err)

		bad, err := filebank.NewLocalHelper(svc, nil).Reconcile(ctx)
		as.Nil(err)
		as.Empty(bad)
	})
}
