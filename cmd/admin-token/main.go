package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/labledger/labledger-backend/pkg/auth"
	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/enums"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/security"
)

// admin-token prints a signed bearer token for the admin API, or with
// -hash-password an argon2id hash for LABLEDGER_ADMIN_PASSWORD_HASH.
func main() {
	subject := flag.String("subject", "", "who the token is issued to")
	role := flag.String("role", string(enums.ActorRoleAdmin), "actor role: admin|staff")
	ttl := flag.Int("ttl-minutes", 0, "override LABLEDGER_JWT_EXPIRATION_MINUTES")
	hashPassword := flag.Bool("hash-password", false, "read a password from stdin and print its argon2id hash")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "admin-token", Output: os.Stderr})
	_ = godotenv.Load()

	if *hashPassword {
		if err := printHash(); err != nil {
			fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if *ttl > 0 {
		cfg.JWT.ExpirationMinutes = *ttl
	}

	actorRole, err := enums.ParseActorRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -role: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.MintToken(cfg.JWT, time.Now(), auth.TokenPayload{Subject: *subject, Role: actorRole})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"subject":     *subject,
		"role":        actorRole,
		"ttl_minutes": cfg.JWT.ExpirationMinutes,
	})
	logg.Info(ctx, "admin token issued")
	fmt.Println(token)
}

// printHash needs only the argon2 parameters, not a full deployment config.
func printHash() error {
	var params config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &params); err != nil {
		return err
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return err
	}
	hash, err := security.HashPassword(strings.TrimRight(line, "\r\n"), params)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
