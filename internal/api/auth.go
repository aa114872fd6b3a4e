package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/repository"
)

type ownerKey struct{}

// Authenticator checks HS256 bearer tokens. The subject claim is the owner
// id; a first request from an unknown owner provisions the user row.
type Authenticator struct {
	secret []byte
	users  *repository.UserRepository
}

func NewAuthenticator(secret string, users *repository.UserRepository) *Authenticator {
	return &Authenticator{secret: []byte(secret), users: users}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			respondError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		owner, err := a.parse(raw)
		if err != nil {
			logger.FromContext(r.Context()).Debug("token rejected", slog.String("error", err.Error()))
			respondError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		if _, err := a.users.Ensure(r.Context(), owner); err != nil {
			logger.FromContext(r.Context()).Error("ensure owner failed",
				slog.String("owner_id", owner.String()),
				slog.String("error", err.Error()))
			respondError(w, r, http.StatusInternalServerError, "Authentication error")
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		log := logger.FromContext(ctx).With(slog.String("owner_id", owner.String()))
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, log)))
	})
}

func (a *Authenticator) parse(raw string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}
	owner, err := uuid.Parse(claims.Subject)
	if err != nil || owner == uuid.Nil {
		return uuid.Nil, errors.New("subject is not an owner id")
	}
	return owner, nil
}

// IssueToken signs a token for owner valid for ttl.
func IssueToken(secret string, owner uuid.UUID, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	claims := jwt.RegisteredClaims{
		Subject:   owner.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func ownerFrom(ctx context.Context) (uuid.UUID, bool) {
	owner, ok := ctx.Value(ownerKey{}).(uuid.UUID)
	return owner, ok && owner != uuid.Nil
}
