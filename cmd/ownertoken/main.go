// Command ownertoken prints an OWNER bearer token signed with the
// configured AUTH_JWT_SECRET, for use with DELETE /users.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"student-registry/internal/config"
	"student-registry/pkg/security"
)

func main() {
	subject := flag.String("subject", "owner", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to AUTH_TOKEN_TTL_MINUTES)")
	flag.Parse()

	if err := run(*subject, *ttl); err != nil {
		fmt.Fprintln(os.Stderr, "ownertoken:", err)
		os.Exit(1)
	}
}

func run(subject string, ttl time.Duration) error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "."
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is not set")
	}
	if ttl <= 0 {
		ttl = time.Duration(cfg.Auth.TokenTTL) * time.Minute
	}

	token, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttl).Issue(subject, security.RoleOwner)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
