package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Requires_Secrets(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "missing")

	// Given only the token secret
	t.Setenv("CONSULT_JWT_SECRET", "jwt")
	_, err := Load()
	req.ErrorContains(err, "secret is required")

	// Given only the cookie secret
	t.Setenv("CONSULT_JWT_SECRET", "")
	t.Setenv("CONSULT_SECRET", "cookie")
	_, err = Load()
	req.ErrorContains(err, "jwt_secret is required")
}

func TestLoad_Defaults_With_Env_Secrets(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("CONSULT_SECRET", "cookie")
	t.Setenv("CONSULT_JWT_SECRET", "jwt")
	t.Setenv("CONSULT_PORT", "9090")

	cfg, err := Load()

	req.NoError(err)
	req.Equal("cookie", cfg.Secret)
	req.Equal("jwt", cfg.JWTSecret)
	req.Equal(9090, cfg.Port)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal("/video-call/", cfg.JoinURLPrefix)
	req.Equal(1024, cfg.EndedRetention)
}
