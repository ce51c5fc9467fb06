package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenAuth issues and verifies HS256 bearer tokens for a single operator account.
type TokenAuth struct {
	secret   []byte
	ttl      time.Duration
	username string
	password string
	now      func() time.Time
}

func NewTokenAuth(secret string, ttl time.Duration, username, password string) *TokenAuth {
	return &TokenAuth{
		secret:   []byte(secret),
		ttl:      ttl,
		username: username,
		password: password,
		now:      time.Now,
	}
}

func (a *TokenAuth) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

func (a *TokenAuth) Issue(subject string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the subject of a valid token.
func (a *TokenAuth) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(a.now()) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func loginHandler(auth *TokenAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "validation_failed", "username and password are required")
			return
		}
		if !auth.checkCredentials(req.Username, req.Password) {
			log.Info().Str("request_id", GetRequestID(r.Context())).Msg("rejected login")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
			return
		}

		token, expiresAt, err := auth.Issue(req.Username)
		if err != nil {
			log.Error().Err(err).Msg("token issue failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
	}
}

// RequireBearer rejects requests without a valid bearer token.
func RequireBearer(auth *TokenAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "missing_token", "Authorization: Bearer <token> is required")
				return
			}
			if _, err := auth.Verify(raw); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
