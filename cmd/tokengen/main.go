// Command tokengen prints a signed bearer token for a back-office operator.
// It signs with AUTH_SECRET, the same secret the server verifies with.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"stockpos/backend/internal/config"
	"stockpos/backend/internal/httpapi"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	actor := fs.String("actor", "", "operator id written to the sub claim")
	role := fs.String("role", "", "cashier, stock_manager, purchasing or admin")
	ttl := fs.Duration("ttl", time.Duration(cfg.TokenTTLMinutes)*time.Minute, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, *ttl)
	if err != nil {
		return err
	}
	token, expiresAt, err := auth.Issue(*actor, strings.ToLower(strings.TrimSpace(*role)))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%s\n# expires %s\n", token, expiresAt.Format(time.RFC3339))
	return err
}
