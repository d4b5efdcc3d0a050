package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/arhyth/filebank"
	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "", "path to configuration file")
	seedp := flag.String("seed", "seed_accounts.yml", "path to seed accounts file")
	workers := flag.Int("workers", 4, "accounts created concurrently")
	flag.Parse()

	if err := filebank.LoadEnv(".env"); err != nil {
		logger.Fatal().Err(err).Msg("error loading .env")
	}
	cfg, err := filebank.LoadConfig(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	seeds, err := filebank.ReadSeedFile(*seedp)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *seedp).Msg("error reading seed file")
	}

	svc, err := filebank.NewServiceFromConfig(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting ledger")
	}
	lh := filebank.NewLocalHelper(svc, &logger)
	lh.Concurrency = *workers

	created, err := lh.SeedAccounts(context.Background(), seeds.Accounts)
	for email, acct := range created {
		fmt.Printf("%s\t%s\n", acct, email)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("error seeding accounts")
	}
}
