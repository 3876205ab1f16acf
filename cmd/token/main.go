// Package main issues API tokens for an owner. It signs with the same secret
// and issuer as the server, so it is meant for development and operators.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"helmetledger/internal/config"
	"helmetledger/internal/domain/auth"
)

func main() {
	var (
		user  = flag.String("user", "", "user id (subject)")
		owner = flag.String("owner", "", "owner id; defaults to the user id")
		email = flag.String("email", "", "email claim")
		roles = flag.String("roles", "", "comma separated roles")
		ttl   = flag.Duration("ttl", 0, "token lifetime; defaults to JWT_TOKEN_TTL")
	)
	flag.Parse()

	cfg, err := config.LoadAuth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtCfg.Issuer = cfg.JWTIssuer
	jwtCfg.TokenTTL = cfg.JWTTokenTTL

	in := auth.IssueInput{
		UserID:  *user,
		OwnerID: *owner,
		Email:   *email,
		TTL:     *ttl,
	}
	if *roles != "" {
		in.Roles = strings.Split(*roles, ",")
	}

	token, expiresAt, err := auth.NewJWTService(jwtCfg).Issue(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
