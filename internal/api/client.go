// Package api is the HTTP client for the remote service: the three auth
// endpoints used during bootstrap, plus the signed envelope every business
// request travels in.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"signet/internal/domain"
)

// Header names of the request envelope.
const (
	HeaderAuth            = "X-Signet-Auth"
	HeaderSignature       = "X-Signet-Signature"
	HeaderServerSignature = "X-Signet-Server-Signature"
	HeaderRequestID       = "X-Signet-Request-Id"
)

// Client talks to one deployment of the remote API.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// New returns a Client for the given base URL.
func New(base string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{base: base, http: httpClient, log: log}
}

type installationRequest struct {
	APIKey          string `json:"api_key"`
	ClientPublicKey string `json:"client_public_key"`
}

type installationResponse struct {
	Token           string `json:"token"`
	ServerPublicKey string `json:"server_public_key"`
}

// CreateInstallation performs the one-time installation handshake.
func (c *Client) CreateInstallation(ctx context.Context, apiKey, clientPublicKeyPEM string) (domain.Installation, error) {
	body, err := json.Marshal(installationRequest{APIKey: apiKey, ClientPublicKey: clientPublicKeyPEM})
	if err != nil {
		return domain.Installation{}, err
	}
	resp, raw, err := c.do(ctx, http.MethodPost, "/v1/installation", body, "", "")
	if err != nil {
		return domain.Installation{}, &domain.BootstrapError{Step: "install", Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Installation{}, &domain.ConfigurationError{Reason: "api key rejected by remote service"}
	case resp.StatusCode/100 != 2:
		return domain.Installation{}, &domain.BootstrapError{Step: "install", Err: statusError(resp.StatusCode, raw)}
	}
	var out installationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Installation{}, &domain.BootstrapError{Step: "install", Err: err}
	}
	c.log.Debug("installation created", zap.Int("token_len", len(out.Token)))
	return domain.Installation{Token: out.Token, ServerPublicKey: out.ServerPublicKey}, nil
}

type deviceRequest struct {
	Secret      string `json:"secret"`
	Description string `json:"description"`
	PublicKey   string `json:"public_key"`
}

type deviceResponse struct {
	ID string `json:"id"`
}

// RegisterDevice binds the client public key to an installation.
func (c *Client) RegisterDevice(ctx context.Context, installationToken, apiKey, clientPublicKeyPEM, description string) (string, error) {
	body, err := json.Marshal(deviceRequest{Secret: apiKey, Description: description, PublicKey: clientPublicKeyPEM})
	if err != nil {
		return "", err
	}
	resp, raw, err := c.do(ctx, http.MethodPost, "/v1/device", body, installationToken, "")
	if err != nil {
		return "", &domain.BootstrapError{Step: "register", Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &domain.ConfigurationError{Reason: "api key rejected during device registration"}
	case resp.StatusCode/100 != 2:
		return "", &domain.BootstrapError{Step: "register", Err: statusError(resp.StatusCode, raw)}
	}
	var out deviceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &domain.BootstrapError{Step: "register", Err: err}
	}
	c.log.Debug("device registered", zap.String("device_id", out.ID))
	return out.ID, nil
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// CreateSession exchanges a signed payload for a session pair.
func (c *Client) CreateSession(ctx context.Context, installationToken string, body []byte, signature string) (domain.Session, error) {
	resp, raw, err := c.do(ctx, http.MethodPost, "/v1/session", body, installationToken, signature)
	if err != nil {
		return domain.Session{}, &domain.SessionError{Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return domain.Session{}, &domain.SessionError{Err: statusError(resp.StatusCode, raw)}
	}
	var out sessionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Session{}, &domain.SessionError{Err: err}
	}
	c.log.Debug("session created", zap.String("user_id", out.UserID))
	return domain.Session{Token: out.Token, UserID: out.UserID}, nil
}

// Do performs a signed business request. HTTP 401 maps to ErrAuthExpired so
// the session manager can run its single reactive refresh.
func (c *Client) Do(ctx context.Context, req domain.BusinessRequest) (*domain.BusinessResponse, error) {
	resp, raw, err := c.do(ctx, req.Method, req.Path, req.Body, req.SessionToken, req.Signature)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, domain.ErrAuthExpired)
	}
	return &domain.BusinessResponse{
		StatusCode:      resp.StatusCode,
		Body:            raw,
		ServerSignature: resp.Header.Get(HeaderServerSignature),
	}, nil
}

// do sends one request with the envelope headers and drains the body.
func (c *Client) do(ctx context.Context, method, path string, body []byte, authToken, signature string) (*http.Response, []byte, error) {
	var rd io.Reader
	if len(body) > 0 {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if authToken != "" {
		req.Header.Set(HeaderAuth, authToken)
	}
	if signature != "" {
		req.Header.Set(HeaderSignature, signature)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, raw, nil
}

func statusError(code int, body []byte) error {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return fmt.Errorf("unexpected status %d: %s", code, bytes.TrimSpace(body))
}

// Compile-time assertion that Client implements domain.APIClient.
var _ domain.APIClient = (*Client)(nil)
