package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// LoginRequest holds the credentials exchanged for a session token.
type LoginRequest struct {
	// URL is the Seal API base URL
	URL      string
	User     string
	Password string
}

// Login obtains a session token: it fetches a nonce from /security/nonce and
// posts the credentials with that nonce to /auths. The token is read from
// the X-Session-Token response header. httpClient may be nil.
func Login(ctx context.Context, httpClient *http.Client, req LoginRequest) (string, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	base, err := url.Parse(req.URL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base url %q", req.URL)
	}

	logger := log.With().Str("component", "seal-login").Logger()

	nonceReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base.JoinPath("security", "nonce").String(), nil)
	if err != nil {
		return "", fmt.Errorf("create nonce request: %w", err)
	}
	nonce, _, err := doRequest(httpClient, nonceReq, EndpointNonce, "", logger)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	payload, err := json.Marshal(struct {
		Principal string `json:"principal"`
		Password  string `json:"password"`
		Nonce     string `json:"nonce"`
	}{
		Principal: req.User,
		Password:  req.Password,
		Nonce:     string(nonce),
	})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	authReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base.JoinPath("auths").String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	authReq.Header.Set("Content-Type", "application/json")

	_, header, err := doRequest(httpClient, authReq, EndpointAuths, "", logger)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	token := header.Get("X-Session-Token")
	if token == "" {
		return "", ErrMissingToken
	}

	logger.Info().Str("user", req.User).Msg("Obtained session token")
	return token, nil
}
