package odin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-sharing/internal/platform/httpclient"
	"pet-sharing/internal/ports/auth"
)

var (
	ErrOdinNotConfigured = errors.New("odin client not configured")
	ErrOdinUnauthorized  = errors.New("odin unauthorized")
	ErrOdinUpstream      = errors.New("odin upstream error")
)

// Config del cliente Odin. BaseURL y APIKey vienen de config (auth.odin.*).
type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header donde se manda la API key. Default "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Client habla con Odin (IAM). Lo usan el Verifier y el directorio de
// identidades, que comparten credenciales.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("odin: %w", err)
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

func (c *Client) headers() map[string]string {
	return map[string]string{c.apiKeyHeader: c.apiKey}
}

// VerifyToken verifica un bearer token contra Odin y devuelve claims.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrOdinUnauthorized
	}

	headers := c.headers()
	// Algunos IAM esperan el token en Authorization, aunque también vaya en body.
	headers["Authorization"] = "Bearer " + token

	var out struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}

	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify",
		headers,
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) {
			if he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden {
				return auth.Claims{}, ErrOdinUnauthorized
			}
			return auth.Claims{}, fmt.Errorf("%w: status=%d", ErrOdinUpstream, he.StatusCode)
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrOdinUpstream, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, errors.New("odin response missing user_id")
	}

	return auth.Claims{
		UserID: out.UserID,
		Email:  strings.TrimSpace(out.Email),
	}, nil
}
