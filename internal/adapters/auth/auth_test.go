package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	req := require.New(t)
	v := NewJWTVerifier("secret")

	token, err := v.Issue(42, time.Minute)
	req.NoError(err)

	uid, err := v.Verify(context.Background(), token)
	req.NoError(err)
	req.Equal(domain.UserID(42), uid)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	req := require.New(t)
	v := NewJWTVerifier("secret")
	ctx := context.Background()

	expired, err := v.Issue(42, -time.Minute)
	req.NoError(err)
	foreign, err := NewJWTVerifier("other").Issue(42, time.Minute)
	req.NoError(err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
	req.NoError(err)
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "42"}).SignedString([]byte("secret"))
	req.NoError(err)

	for name, token := range map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"expired":    expired,
		"foreign":    foreign,
		"no subject": noSubject,
		"wrong alg":  wrongAlg,
	} {
		_, err := v.Verify(ctx, token)
		req.ErrorIs(err, ErrInvalidToken, name)
	}
}

type staticDirectory struct {
	active map[domain.UserID]bool
	err    error
}

func (d staticDirectory) IsActive(_ context.Context, uid domain.UserID) (bool, error) {
	return d.active[uid], d.err
}

func TestGate_Authenticate(t *testing.T) {
	req := require.New(t)
	v := NewJWTVerifier("secret")
	ctx := context.Background()
	activeToken, _ := v.Issue(1, time.Minute)
	inactiveToken, _ := v.Issue(2, time.Minute)

	gate := &Gate{Verifier: v, Directory: staticDirectory{active: map[domain.UserID]bool{1: true}}}

	uid, err := gate.Authenticate(ctx, activeToken)
	req.NoError(err)
	req.Equal(domain.UserID(1), uid)

	_, err = gate.Authenticate(ctx, inactiveToken)
	req.ErrorIs(err, ErrInactiveUser)

	_, err = gate.Authenticate(ctx, "junk")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestGate_Directory_Failure(t *testing.T) {
	req := require.New(t)
	v := NewJWTVerifier("secret")
	token, _ := v.Issue(1, time.Minute)
	boom := errors.New("db down")

	gate := &Gate{Verifier: v, Directory: staticDirectory{err: boom}}
	_, err := gate.Authenticate(context.Background(), token)
	req.ErrorIs(err, boom)

	// Without a directory only the token is checked
	gate = &Gate{Verifier: v}
	uid, err := gate.Authenticate(context.Background(), token)
	req.NoError(err)
	req.Equal(domain.UserID(1), uid)
}
