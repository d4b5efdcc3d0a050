package filebank_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arhyth/filebank"
)

func TestRuleValidator(t *testing.T) {
	v := filebank.RuleValidator{}

	t.Run("email", func(tt *testing.T) {
		as := assert.New(tt)
		for _, ok := range []string{"ada@example.com", "a.b+c@sub.example.org", " pad@example.io "} {
			as.True(v.IsValidEmail(ok), ok)
		}
		for _, bad := range []string{"", "g!bberis#", "no-at.example.com", "a@b", "a@b.c", "a b@example.com"} {
			as.False(v.IsValidEmail(bad), bad)
		}
	})

	t.Run("phone", func(tt *testing.T) {
		as := assert.New(tt)
		for _, ok := range []string{"5551234567", "+15551234567", "(555) 123-4567", "+44 20 7946 0958", "555.123.4567"} {
			as.True(v.IsValidPhone(ok), ok)
		}
		for _, bad := range []string{"", "12", "555-1234", "+1234567890123456", "555123456x", "++15551234567"} {
			as.False(v.IsValidPhone(bad), bad)
		}
	})

	t.Run("password", func(tt *testing.T) {
		as := assert.New(tt)
		as.True(v.IsValidPassword("Analytical1"))
		as.False(v.IsValidPassword("Short1a"))
		as.False(v.IsValidPassword("alllowercase1"))
		as.False(v.IsValidPassword("ALLUPPERCASE1"))
		as.False(v.IsValidPassword("NoDigitsHere"))
	})
}

func TestBcryptHasher(t *testing.T) {
	t.Run("verifies only the original password", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		h := filebank.NewBcryptHasher(bcrypt.MinCost)
		hash, err := h.Hash("Analytical1")
		reqrd.Nil(err)
		as.NotContains(hash, "Analytical1")
		as.True(h.Verify("Analytical1", hash))
		as.False(h.Verify("analytical1", hash))
		as.False(h.Verify("Analytical1", "not-a-hash"))
	})

	t.Run("salts every hash", func(tt *testing.T) {
		as := assert.New(tt)
		h := filebank.NewBcryptHasher(bcrypt.MinCost)
		a, err := h.Hash("Analytical1")
		as.Nil(err)
		b, err := h.Hash("Analytical1")
		as.Nil(err)
		as.NotEqual(a, b)
	})

	t.Run("out of range cost falls back to the default", func(tt *testing.T) {
		assert.Equal(tt, bcrypt.DefaultCost, filebank.NewBcryptHasher(99).Cost)
		assert.Equal(tt, bcrypt.DefaultCost, filebank.NewBcryptHasher(0).Cost)
	})
}

func TestSnowflakeIDs(t *testing.T) {
	t.Run("issues unique identifiers under concurrency", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ids, err := filebank.NewSnowflakeIDs(3)
		reqrd.Nil(err)

		var (
			mu   sync.Mutex
			seen = map[string]bool{}
			wg   sync.WaitGroup
		)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					acct, txn := ids.NewAccountNumber(), ids.NewTransactionID()
					mu.Lock()
					seen[acct] = true
					seen[txn] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		as.Len(seen, 1600)
	})

	t.Run("transaction IDs carry the TXN prefix", func(tt *testing.T) {
		ids, err := filebank.NewSnowflakeIDs(3)
		require.Nil(tt, err)
		id := ids.NewTransactionID()
		assert.True(tt, strings.HasPrefix(id, "TXN-"), id)
		assert.Len(tt, id, len("TXN-")+36)
	})

	t.Run("rejects out of range nodes", func(tt *testing.T) {
		_, err := filebank.NewSnowflakeIDs(4096)
		assert.NotNil(tt, err)
	})
}
