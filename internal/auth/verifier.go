// Package auth verifies bearer tokens against the external auth provider.
package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/icp-engine/internal/apperr"
	"github.com/sells-group/icp-engine/internal/config"
)

// Verifier resolves a bearer token to a user ID.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// HTTPVerifier validates tokens by calling the provider's user endpoint.
type HTTPVerifier struct {
	cfg    config.AuthConfig
	client *http.Client
}

// NewHTTPVerifier creates a verifier against cfg.BaseURL.
func NewHTTPVerifier(cfg config.AuthConfig) *HTTPVerifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Verify calls GET {base}/auth/v1/user with the token and returns the user
// ID. Any non-200 response or unusable body yields an authentication error.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", eris.Wrap(err, "auth: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.cfg.AnonKey)

	resp, err := v.client.Do(req)
	if err != nil {
		zap.L().Warn("auth provider unreachable", zap.Error(err))
		return "", apperr.Authentication("Invalid or expired token")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Authentication("Invalid or expired token")
	}

	var user struct {
		ID string `json:"id"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", apperr.Authentication("Invalid or expired token")
	}
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return "", apperr.Authentication("Invalid or expired token")
	}
	return user.ID, nil
}
