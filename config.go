package filebank

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store StoreConfig `yaml:"store"`
	IDs   struct {
		Node int64 `yaml:"node"`
	} `yaml:"ids"`
	Security struct {
		BcryptCost int `yaml:"bcrypt_cost"`
	} `yaml:"security"`
	Limits  LimitsConfig  `yaml:"limits"`
	Breaker BreakerConfig `yaml:"breaker"`
	Log     struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

type StoreConfig struct {
	Dir             string `yaml:"dir"`
	File            string `yaml:"file"`
	BackupDir       string `yaml:"backup_dir"`
	BackupRetention int    `yaml:"backup_retention"`
}

type LimitsConfig struct {
	MaxInFlight    int64         `yaml:"max_in_flight"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
	HalfOpenRequests    uint32        `yaml:"half_open_requests"`
}

func DefaultConfig() Config {
	var cfg Config
	cfg.Store = StoreConfig{
		Dir:             "BankData",
		File:            "accounts.json",
		BackupDir:       "backup",
		BackupRetention: 10,
	}
	cfg.IDs.Node = 1
	cfg.Security.BcryptCost = 10
	cfg.Limits = LimitsConfig{MaxInFlight: 64, AcquireTimeout: 2 * time.Second}
	cfg.Breaker = BreakerConfig{ConsecutiveFailures: 3, OpenTimeout: 30 * time.Second, HalfOpenRequests: 1}
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads a YAML config file over DefaultConfig. An empty path yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err = yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("FILEBANK_DATA_DIR")); v != "" {
		c.Store.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("FILEBANK_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("FILEBANK_NODE")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ErrValidation{Fields: map[string]string{"FILEBANK_NODE": "not an integer"}}
		}
		c.IDs.Node = n
	}
	return nil
}

func (c *Config) Validate() error {
	fields := map[string]string{}
	if c.Store.Dir == "" {
		fields["store.dir"] = "required"
	}
	if c.Store.File == "" {
		fields["store.file"] = "required"
	}
	if c.Store.BackupDir == "" {
		fields["store.backup_dir"] = "required"
	}
	if c.Store.BackupRetention < 1 {
		fields["store.backup_retention"] = "must be at least 1"
	}
	if c.IDs.Node < 0 || c.IDs.Node > 1023 {
		fields["ids.node"] = "must be within 0-1023"
	}
	if c.Limits.MaxInFlight < 1 {
		fields["limits.max_in_flight"] = "must be at least 1"
	}
	if c.Breaker.ConsecutiveFailures < 1 {
		fields["breaker.consecutive_failures"] = "must be at least 1"
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		fields["log.level"] = "unknown level"
	}
	if len(fields) > 0 {
		return ErrValidation{Fields: fields}
	}
	return nil
}

// LogLevel returns the configured level, falling back to info.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewServiceFromConfig wires the file store, the default collaborators and
// the limit and circuit breaker middlewares into a ready Service.
func NewServiceFromConfig(cfg *Config, log *zerolog.Logger) (Service, error) {
	store, err := NewFileStore(cfg.Store, log)
	if err != nil {
		return nil, err
	}
	ids, err := NewSnowflakeIDs(cfg.IDs.Node)
	if err != nil {
		return nil, err
	}
	svc, err := NewService(store, Collaborators{
		Hasher: NewBcryptHasher(cfg.Security.BcryptCost),
		IDs:    ids,
	}, log)
	if err != nil {
		return nil, err
	}
	return Chain(svc,
		NewLimitMiddleware(NewServiceLimits(cfg.Limits)),
		NewCircuitBreakMiddleware(NewServiceBreaker(cfg.Breaker, log)),
	), nil
}
