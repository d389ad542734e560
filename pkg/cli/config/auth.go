package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Auth configures Supabase access token validation
type Auth struct {
	supabaseURL string
	jwtSecret   string
	jwksURL     string
	noAuthUser  string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "supabase-url",
			Usage:       "Supabase project URL (e.g. https://abcd.supabase.co)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PAWNOTES_SUPABASE_URL"),
			Destination: &x.supabaseURL,
		},
		&cli.StringFlag{
			Name:        "supabase-jwt-secret",
			Usage:       "Supabase JWT secret for HS256 tokens. Without it, signing keys are fetched from the project JWKS",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PAWNOTES_SUPABASE_JWT_SECRET"),
			Destination: &x.jwtSecret,
		},
		&cli.StringFlag{
			Name:        "supabase-jwks-url",
			Usage:       "Override the JWKS endpoint",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PAWNOTES_SUPABASE_JWKS_URL"),
			Destination: &x.jwksURL,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and act as the given user ID (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("PAWNOTES_NO_AUTH"),
			Destination: &x.noAuthUser,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("supabase-url", x.supabaseURL),
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.String("no-auth", x.noAuthUser),
	)
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthUser != ""
}

// Configure returns the token validator. --no-auth takes precedence over
// the Supabase settings.
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuthUser != "" {
		if x.supabaseURL != "" {
			slog.Warn("--no-auth is set, ignoring --supabase-url")
		}
		return usecase.NewNoAuthnUseCase(auth.NewToken(x.noAuthUser, "", x.noAuthUser)), nil
	}

	if x.supabaseURL == "" {
		return nil, goerr.Wrap(ErrMissingConfiguration, "authentication is required: set --supabase-url, or use --no-auth for development")
	}

	var opts []usecase.AuthOption
	if x.jwtSecret != "" {
		opts = append(opts, usecase.WithJWTSecret(x.jwtSecret))
	}
	if x.jwksURL != "" {
		opts = append(opts, usecase.WithJWKSURL(x.jwksURL))
	}
	return usecase.NewAuthUseCase(x.supabaseURL, opts...), nil
}
