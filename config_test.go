package filebank_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/filebank"
)

func TestLoadConfig(t *testing.T) {
	t.Run("empty path yields the defaults", func(tt *testing.T) {
		as := assert.New(tt)
		cfg, err := filebank.LoadConfig("")
		as.Nil(err)
		as.Equal(filebank.DefaultConfig().Store, cfg.Store)
		as.Equal(10, cfg.Store.BackupRetention)
		as.Equal(zerolog.InfoLevel, cfg.LogLevel())
	})

	t.Run("yaml overrides defaults it names", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		path := filepath.Join(tt.TempDir(), "config.yml")
		reqrd.Nil(os.WriteFile(path, []byte(`
store:
  dir: /var/lib/filebank
  backup_retention: 3
limits:
  acquire_timeout: 250ms
breaker:
  open_timeout: 1m
log:
  level: debug
`), 0o644))

		cfg, err := filebank.LoadConfig(path)
		reqrd.Nil(err)
		as.Equal("/var/lib/filebank", cfg.Store.Dir)
		as.Equal("accounts.json", cfg.Store.File)
		as.Equal(3, cfg.Store.BackupRetention)
		as.Equal(250*time.Millisecond, cfg.Limits.AcquireTimeout)
		as.Equal(int64(64), cfg.Limits.MaxInFlight)
		as.Equal(time.Minute, cfg.Breaker.OpenTimeout)
		as.Equal(zerolog.DebugLevel, cfg.LogLevel())
	})

	t.Run("empty file is fine", func(tt *testing.T) {
		path := filepath.Join(tt.TempDir(), "config.yml")
		require.Nil(tt, os.WriteFile(path, nil, 0o644))
		_, err := filebank.LoadConfig(path)
		assert.Nil(tt, err)
	})

	t.Run("missing file is an error", func(tt *testing.T) {
		_, err := filebank.LoadConfig(filepath.Join(tt.TempDir(), "nope.yml"))
		assert.NotNil(tt, err)
	})

	t.Run("environment wins over the file", func(tt *testing.T) {
		as := assert.New(tt)
		tt.Setenv("FILEBANK_DATA_DIR", "/tmp/elsewhere")
		tt.Setenv("FILEBANK_LOG_LEVEL", "warn")
		tt.Setenv("FILEBANK_NODE", "42")
		cfg, err := filebank.LoadConfig("")
		as.Nil(err)
		as.Equal("/tmp/elsewhere", cfg.Store.Dir)
		as.Equal(zerolog.WarnLevel, cfg.LogLevel())
		as.Equal(int64(42), cfg.IDs.Node)
	})

	t.Run("bad node from the environment", func(tt *testing.T) {
		tt.Setenv("FILEBANK_NODE", "forty-two")
		_, err := filebank.LoadConfig("")
		assert.ErrorAs(tt, err, &filebank.ErrValidation{})
	})
}

func TestConfigValidate(t *testing.T) {
	as := assert.New(t)
	cfg := filebank.DefaultConfig()
	as.Nil(cfg.Validate())

	cfg.Store.File = ""
	cfg.Store.BackupRetention = 0
	cfg.IDs.Node = 2048
	cfg.Limits.MaxInFlight = 0
	cfg.Log.Level = "loud"
	var verr filebank.ErrValidation
	as.ErrorAs(cfg.Validate(), &verr)
	for _, f := range []string{"store.file", "store.backup_retention", "ids.node", "limits.max_in_flight", "log.level"} {
		as.Contains(verr.Fields, f)
	}
}

func TestLoadEnv(t *testing.T) {
	as := assert.New(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.Nil(t, os.WriteFile(path, []byte("FILEBANK_TEST_LOADENV=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FILEBANK_TEST_LOADENV") })

	as.Nil(filebank.LoadEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	as.Equal("from-file", os.Getenv("FILEBANK_TEST_LOADENV"))
}

func TestNewServiceFromConfig(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	cfg := filebank.DefaultConfig()
	cfg.Store.Dir = filepath.Join(t.TempDir(), "BankData")
	cfg.Security.BcryptCost = 4

	svc, err := filebank.NewServiceFromConfig(&cfg, nil)
	reqrd.Nil(err)
	as.FileExists(filepath.Join(cfg.Store.Dir, "accounts.json"))

	ctx := context.Background()
	acct, err := svc.CreateAccount(ctx, createReq("Ada", "ada@example.com", "1200"))
	reqrd.Nil(err)
	_, err = svc.Authenticate(ctx, filebank.AuthReq{AcctNum: acct.AcctNum, Password: testPassword})
	as.Nil(err)
	n, err := svc.AccrueInterest(ctx)
	as.Nil(err)
	as.Equal(1, n)
	as.Equal("1203.00", balanceOf(t, svc, acct.AcctNum))

	backups, err := os.ReadDir(filepath.Join(cfg.Store.Dir, "backup"))
	reqrd.Nil(err)
	as.Len(backups, 2)
}
