package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hackgods/hospital-records/internal/metrics"
	"github.com/hackgods/hospital-records/internal/session"
)

const loginPath = "/api/auth/login"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticate verifies credentials against the API and returns its bearer
// token. It satisfies session.Authenticator.
func (c *Client) Authenticate(ctx context.Context, creds session.Credentials) (session.Token, error) {
	start := time.Now()
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, loginPath, loginRequest{Username: creds.Username, Password: creds.Password}, &resp, http.StatusOK)
	metrics.RecordClientRequest("auth", "login", start, err)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
			return "", session.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("login: empty token in response")
	}
	return session.Token(resp.Token), nil
}
