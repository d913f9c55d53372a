// File: cmd/seed/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"event-ticket-ledger/internal/application"
	"event-ticket-ledger/internal/config"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/infra/logging"
	"event-ticket-ledger/internal/infra/web"
)

func main() {
	cfgPath := flag.StringP("config", "c", "config.yaml", "path to YAML config file")
	count := flag.IntP("count", "n", 10, "tickets to issue as the owner (0 to skip)")
	price := flag.String("price", "", "ticket price in base units (empty keeps current)")
	tokenFor := flag.StringSlice("token", nil, "mint a bearer token for these accounts")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of minted tokens")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ledger, err := application.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger startup failed")
	}
	defer ledger.Close()

	owner, _ := model.ParseAccountID(cfg.Ledger.OwnerAccount)

	if *price != "" {
		amount, err := model.ParseAmount(*price)
		if err != nil {
			logger.Fatal().Err(err).Str("price", *price).Msg("invalid price")
		}
		if err := ledger.UseCase.SetPriceTicket(ctx, owner, amount); err != nil {
			logger.Fatal().Err(err).Msg("set price")
		}
		fmt.Printf("price set to %s\n", amount.String())
	}

	if *count > 0 {
		batch, err := ledger.UseCase.IssueTicket(ctx, owner, *count)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue tickets")
		}
		fmt.Printf("issued tickets %d..%d\n", batch[0].Code, batch[len(batch)-1].Code)
	}

	if len(*tokenFor) > 0 {
		if cfg.Auth.JWTSecret == "" {
			logger.Fatal().Msg("auth.jwt_secret is required to mint tokens")
		}
		im := web.NewIdentityManager(cfg.Auth.JWTSecret, false)
		for _, raw := range *tokenFor {
			acct, err := model.ParseAccountID(raw)
			if err != nil {
				logger.Fatal().Err(err).Str("account", raw).Msg("invalid account")
			}
			tok, err := im.Mint(acct, *tokenTTL)
			if err != nil {
				logger.Fatal().Err(err).Msg("mint token")
			}
			fmt.Printf("%s\t%s\n", acct, tok)
		}
	}
}
