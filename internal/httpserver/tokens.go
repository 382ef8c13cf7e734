// internal/httpserver/tokens.go
//
// Session tokens. /game/new returns an HS256 JWT naming the game; every
// other /game/* route requires it as "Authorization: Bearer <token>".

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims binds a token to one game.
type sessionClaims struct {
	GameID string `json:"gid"`
	Level  int    `json:"lvl"`
	Daily  bool   `json:"dly,omitempty"`
	jwt.RegisteredClaims
}

type tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokens(secret string, ttl time.Duration, now func() time.Time) *tokens {
	return &tokens{secret: []byte(secret), ttl: ttl, now: now}
}

// issue signs a token for the game and returns it with its expiry.
func (t *tokens) issue(gameID string, level int, daily bool) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		GameID: gameID,
		Level:  level,
		Daily:  daily,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// parse validates the signature and expiry and returns the claims.
func (t *tokens) parse(s string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	tok, err := jwt.ParseWithClaims(s, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.GameID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// bearer extracts the token from "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// ctxSessionKey is the context key type for *sessionClaims.
type ctxSessionKey struct{}

// requireSession enforces a valid token and injects its claims into the
// request context.
func (s *Server) requireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := s.tokens.parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxSessionKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(ctx context.Context) *sessionClaims {
	c, _ := ctx.Value(ctxSessionKey{}).(*sessionClaims)
	return c
}
