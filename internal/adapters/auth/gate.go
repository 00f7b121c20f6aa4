package auth

import (
	"context"
	"fmt"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (domain.UserID, error)
}

type UserDirectory interface {
	IsActive(ctx context.Context, uid domain.UserID) (bool, error)
}

// Gate runs both checks a connection needs before it reaches the core:
// a valid token and an active user behind it.
type Gate struct {
	Verifier  Verifier
	Directory UserDirectory
}

func (g *Gate) Authenticate(ctx context.Context, token string) (domain.UserID, error) {
	uid, err := g.Verifier.Verify(ctx, token)
	if err != nil {
		return 0, err
	}
	if g.Directory == nil {
		return uid, nil
	}
	active, err := g.Directory.IsActive(ctx, uid)
	if err != nil {
		log.Error().Err(err).Str("module", "auth").Str("user", uid.String()).Msg("active user lookup")
		return 0, fmt.Errorf("active user lookup: %w", err)
	}
	if !active {
		return 0, ErrInactiveUser
	}
	return uid, nil
}
