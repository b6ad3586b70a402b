// Command devtoken prints a bearer token for a local API. It signs with the
// same key and issuer the API is configured with.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/oumaoumag/eventvex/internal/auth"
	"github.com/oumaoumag/eventvex/internal/clock"
	"github.com/oumaoumag/eventvex/internal/config"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("devtoken", pflag.ExitOnError)
	secret := fs.String("secret", config.DevAuthSecret, "HMAC signing key")
	issuer := fs.String("issuer", "eventvex", "token issuer")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	address := fs.StringP("address", "a", "", "caller address (0x...)")
	_ = fs.Parse(os.Args[1:])

	if err := run(*secret, *issuer, *ttl, *address); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func run(secret, issuer string, ttl time.Duration, address string) error {
	addr, err := domain.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("--address: %w", err)
	}
	iss, err := auth.NewIssuer([]byte(secret), issuer, ttl, clock.NewSystem())
	if err != nil {
		return err
	}
	token, err := iss.Issue(addr)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
