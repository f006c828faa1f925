package odindir

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-sharing/internal/platform/httpclient"
	"pet-sharing/internal/ports/identity"
)

var (
	ErrDirNotConfigured = errors.New("identity directory not configured")
	ErrUserNotFound     = errors.New("identity: user not found")
	ErrDirUpstream      = errors.New("identity: upstream error")
)

// Config del directorio. Comparte base URL y API key con el cliente Odin;
// las lecturas de usuarios viven en el mismo servicio.
type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

// Directory implementa identity.Directory contra el API de usuarios de Odin.
type Directory struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func New(cfg Config) (*Directory, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("odindir: %w", err)
	}

	return &Directory{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (d *Directory) IsConfigured() bool {
	return d != nil && d.http != nil && d.http.BaseURL != "" && d.apiKey != ""
}

func (d *Directory) LookupByEmail(ctx context.Context, email string) (identity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return identity.User{}, ErrUserNotFound
	}
	return d.lookup(ctx, "/v1/users/by-email/"+url.PathEscape(strings.ToLower(email)))
}

func (d *Directory) LookupByID(ctx context.Context, userID string) (identity.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return identity.User{}, ErrUserNotFound
	}
	return d.lookup(ctx, "/v1/users/"+url.PathEscape(userID))
}

func (d *Directory) lookup(ctx context.Context, path string) (identity.User, error) {
	if !d.IsConfigured() {
		return identity.User{}, ErrDirNotConfigured
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	err := d.http.DoJSON(ctx, http.MethodGet, path,
		map[string]string{d.apiKeyHeader: d.apiKey},
		nil,
		&out,
	)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) {
			if he.StatusCode == http.StatusNotFound {
				return identity.User{}, ErrUserNotFound
			}
			return identity.User{}, fmt.Errorf("%w: status=%d", ErrDirUpstream, he.StatusCode)
		}
		return identity.User{}, fmt.Errorf("%w: %v", ErrDirUpstream, err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return identity.User{}, fmt.Errorf("%w: response missing id", ErrDirUpstream)
	}

	return identity.User{
		ID:    out.ID,
		Email: strings.TrimSpace(strings.ToLower(out.Email)),
	}, nil
}
