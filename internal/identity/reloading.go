package identity

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// Reloading resolves its Settings on every call and rebuilds the underlying
// credential when they change, so a reloaded tenant, client id or secret
// applies to the next request. Tokens are never cached here.
type Reloading struct {
	settings   func() Settings
	httpClient *http.Client
	build      func(Settings, *http.Client) (TokenProvider, error)

	mu       sync.Mutex
	built    bool
	cur      Settings
	provider TokenProvider
}

func NewReloading(settings func() Settings, httpClient *http.Client) *Reloading {
	return &Reloading{settings: settings, httpClient: httpClient, build: New}
}

func (r *Reloading) Token(ctx context.Context, scope string) (string, error) {
	p, err := r.current()
	if err != nil {
		return "", err
	}
	return p.Token(ctx, scope)
}

func (r *Reloading) current() (TokenProvider, error) {
	s := normalize(r.settings())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built && s == r.cur {
		return r.provider, nil
	}
	p, err := r.build(s, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.cur, r.provider, r.built = s, p, true
	return p, nil
}

func normalize(s Settings) Settings {
	return Settings{
		TenantID:     strings.TrimSpace(s.TenantID),
		ClientID:     strings.TrimSpace(s.ClientID),
		ClientSecret: strings.TrimSpace(s.ClientSecret),
	}
}
