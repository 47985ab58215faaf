// neuroair-token issues link tokens for smart-home platforms and
// dashboard clients.
//
//	neuroair-token --role platform --platform yandex --subject alice-link
//	neuroair-token --role operator --subject kitchen-tablet --ttl 720h
//
// The signing secret and issuer come from the same configuration as the
// server, so tokens verify without any further setup.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/nerrad567/neuroair-core/internal/auth"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/config"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, issues one token and writes it to stdout. A summary
// of the claims goes to stderr so the token can be piped.
func run(args []string, stdout, stderr io.Writer) error {
	fs := cli.NewFlagSet("neuroair-token", cli.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.StringP("config", "c", envOr("NEUROAIR_CONFIG", defaultConfigPath), "Config file path")
	envFile := fs.StringP("env", "e", ".env", "Env file path")
	subject := fs.StringP("subject", "s", "", "Token subject, e.g. alice-link")
	role := fs.StringP("role", "r", string(auth.RolePlatform), "Role: platform, operator or admin")
	platformName := fs.StringP("platform", "p", "", "Platform the token is linked to (yandex, google, home_assistant)")
	deviceID := fs.StringP("device", "d", "", "Device id claim (defaults to device.id from config)")
	ttl := fs.Duration("ttl", 0, "Token lifetime (defaults to security.jwt.link_token_ttl)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	issuer, err := auth.NewIssuer(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, cfg.GetLinkTokenTTL())
	if err != nil {
		return fmt.Errorf("creating issuer: %w", err)
	}

	if *deviceID == "" {
		*deviceID = cfg.Device.ID
	}
	token, claims, err := issuer.Issue(auth.TokenRequest{
		Subject:  *subject,
		Role:     auth.Role(*role),
		Platform: *platformName,
		DeviceID: *deviceID,
		TTL:      *ttl,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "subject=%s role=%s platform=%s device=%s jti=%s expires=%s\n",
		claims.Subject, claims.Role, claims.Platform, claims.DeviceID, claims.ID,
		claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	fmt.Fprintln(stdout, token)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
