// Package identity acquires Microsoft Entra ID bearer tokens for outbound
// calls. Every call fetches a token from the underlying credential; callers
// must not cache them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultAuthorityHost = "https://login.microsoftonline.com"

// Settings selects and scopes the credential.
type Settings struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// TokenProvider returns a bearer token for the given scope.
type TokenProvider interface {
	Token(ctx context.Context, scope string) (string, error)
}

// New returns a ClientSecretCredential when an explicit client id and secret
// are configured, otherwise the environment-driven DefaultCredential.
func New(s Settings, httpClient *http.Client) (TokenProvider, error) {
	if strings.TrimSpace(s.ClientID) != "" && strings.TrimSpace(s.ClientSecret) != "" {
		c, err := NewClientSecretCredential(s, WithHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	d, err := NewDefaultCredential(s.TenantID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// tokenCredential is the subset of azcore.TokenCredential used here.
type tokenCredential interface {
	GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error)
}

// DefaultCredential wraps azidentity's default chain (environment, workload
// identity, managed identity, Azure CLI, Azure Developer CLI).
type DefaultCredential struct {
	cred tokenCredential
}

func NewDefaultCredential(tenantID string) (*DefaultCredential, error) {
	opts := &azidentity.DefaultAzureCredentialOptions{}
	if tenantID = strings.TrimSpace(tenantID); tenantID != "" {
		opts.TenantID = tenantID
	}
	cred, err := azidentity.NewDefaultAzureCredential(opts)
	if err != nil {
		return nil, fmt.Errorf("identity: create default credential: %w", err)
	}
	return &DefaultCredential{cred: cred}, nil
}

func (d *DefaultCredential) Token(ctx context.Context, scope string) (string, error) {
	if d == nil || d.cred == nil {
		return "", errors.New("identity: credential not initialized")
	}
	tok, err := d.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
	if err != nil {
		return "", fmt.Errorf("identity: get token: %w", err)
	}
	if tok.Token == "" {
		return "", errors.New("identity: empty token")
	}
	return tok.Token, nil
}

// ClientSecretCredential runs the OAuth2 client-credentials grant against the
// tenant's v2.0 token endpoint.
type ClientSecretCredential struct {
	tenantID      string
	clientID      string
	clientSecret  string
	authorityHost string
	httpClient    *http.Client
}

type Option func(*ClientSecretCredential)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *ClientSecretCredential) {
		c.httpClient = httpClient
	}
}

func WithAuthorityHost(host string) Option {
	return func(c *ClientSecretCredential) {
		c.authorityHost = strings.TrimRight(strings.TrimSpace(host), "/")
	}
}

func NewClientSecretCredential(s Settings, opts ...Option) (*ClientSecretCredential, error) {
	c := &ClientSecretCredential{
		tenantID:      strings.TrimSpace(s.TenantID),
		clientID:      strings.TrimSpace(s.ClientID),
		clientSecret:  strings.TrimSpace(s.ClientSecret),
		authorityHost: defaultAuthorityHost,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tenantID == "" {
		return nil, errors.New("identity: tenant id is required for client secret credential")
	}
	if c.clientID == "" || c.clientSecret == "" {
		return nil, errors.New("identity: client id and secret are required")
	}
	if c.authorityHost == "" {
		c.authorityHost = defaultAuthorityHost
	}
	return c, nil
}

func (c *ClientSecretCredential) tokenURL() string {
	return c.authorityHost + "/" + c.tenantID + "/oauth2/v2.0/token"
}

func (c *ClientSecretCredential) Token(ctx context.Context, scope string) (string, error) {
	cfg := clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.tokenURL(),
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("identity: client credentials grant: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("identity: empty token")
	}
	return tok.AccessToken, nil
}
