package filebank_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/filebank"
)

func TestStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("renders a PDF of the account history", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestService(tt, newTestStore(tt))
		acct := mustCreate(tt, svc, "ada", "100")
		_, err := svc.Deposit(ctx, filebank.ChargeReq{AcctNum: acct.AcctNum, Amount: dec("25.50")})
		reqrd.Nil(err)

		var buf bytes.Buffer
		reqrd.Nil(svc.Statement(ctx, &buf, filebank.StatementReq{AcctNum: acct.AcctNum}))
		as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		as.Greater(buf.Len(), 500)
	})

	t.Run("a later since still renders", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		svc := newTestService(tt, newTestStore(tt))
		acct := mustCreate(tt, svc, "ada", "100")

		var buf bytes.Buffer
		since := time.Now().Add(24 * time.Hour)
		reqrd.Nil(svc.Statement(ctx, &buf, filebank.StatementReq{AcctNum: acct.AcctNum, Since: since}))
		as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})

	t.Run("unknown account writes nothing", func(tt *testing.T) {
		as := assert.New(tt)
		svc := newTestService(tt, newTestStore(tt))
		var buf bytes.Buffer
		err := svc.Statement(ctx, &buf, filebank.StatementReq{AcctNum: "missing"})
		as.ErrorAs(err, &filebank.ErrNotFound{})
		as.Zero(buf.Len())
	})
}
