package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"airmonitor/backend/libs/apikey"
	"airmonitor/backend/libs/authtoken"
)

func (c *CLI) hashKey(args []string) error {
	fs := c.flagSet("hash-key")
	key := fs.String("key", "", "API key to hash")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *key == "" {
		return errors.New("airctl: -key is required")
	}

	hash, err := apikey.Hash(*key, *cost)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Stdout, hash)
	return nil
}

func (c *CLI) token(args []string) error {
	fs := c.flagSet("token")
	subject := fs.String("subject", "", "token subject, e.g. the display that uses it")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	secret := fs.String("secret", os.Getenv("DASHBOARD_JWT_SECRET"), "signing secret (default $DASHBOARD_JWT_SECRET)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *ttl <= 0 {
		return errors.New("airctl: -ttl must be positive")
	}

	signed, err := authtoken.NewService(*secret, *ttl).Issue(*subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Stdout, signed)
	return nil
}
