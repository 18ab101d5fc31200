// Package config resolves service settings from an optional config file,
// remote parameter overrides and environment variables.
//
// For every setting the first non-empty value wins, in this order: an
// override set through Store.Set (remote parameters), the config file, the
// named environment variable, the built-in default.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config keys. Viper keys are case-insensitive, so a YAML file may spell them
// azureAI.deploymentName and so on.
const (
	KeyEndpoint       = "azureai.endpoint"
	KeyDeploymentName = "azureai.deploymentname"
	KeyTenantID       = "azureai.tenantid"
	KeyClientID       = "azureai.clientid"
	KeyClientSecret   = "azureai.clientsecret"
	KeyServerAddr     = "server.addr"
	KeyAllowedOrigin  = "server.allowedorigin"
	KeyLogLevel       = "log.level"
	KeyLogJSON        = "log.json"
	KeyParamPrefix    = "paramprefix"
	KeyAuditTable     = "audit.table"
	KeyMetricsEnabled = "metrics.enabled"
)

// Environment variables consulted when the config file leaves a key empty.
const (
	EnvEndpoint       = "AZURE_AI_FOUNDRY_ENDPOINT"
	EnvDeploymentName = "AZURE_AI_DEPLOYMENT_NAME"
	EnvTenantID       = "AZURE_TENANT_ID"
	EnvServerAddr     = "ADDR"
	EnvAllowedOrigin  = "ALLOWED_ORIGIN"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogJSON        = "LOG_JSON"
	EnvParamPrefix    = "PARAM_PREFIX"
	EnvAuditTable     = "CHAT_AUDIT_TABLE"
	EnvMetricsEnabled = "METRICS_ENABLED"
)

const (
	DefaultDeploymentName = "gpt-4o"
	DefaultServerAddr     = ":8080"
	DefaultAllowedOrigin  = "*"
	DefaultLogLevel       = "info"
)

// AzureAI holds the settings of the chat-completion upstream.
type AzureAI struct {
	Endpoint       string
	DeploymentName string
	TenantID       string
	ClientID       string
	ClientSecret   string
}

// Configured reports whether an endpoint is available.
func (a AzureAI) Configured() bool {
	return strings.TrimSpace(a.Endpoint) != ""
}

type Settings struct {
	AzureAI        AzureAI
	ServerAddr     string
	AllowedOrigin  string
	LogLevel       string
	LogJSON        bool
	ParamPrefix    string
	AuditTable     string
	MetricsEnabled bool
}

// Store holds the resolved Settings and re-resolves them when the config file
// changes or an override is set. It is safe for concurrent use.
type Store struct {
	v         *viper.Viper
	lookupEnv func(string) (string, bool)
	fromFile  bool

	mu  sync.RWMutex
	cur Settings
}

type Option func(*Store)

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(s *Store) {
		if fn != nil {
			s.lookupEnv = fn
		}
	}
}

// Load reads the optional config file at path and resolves Settings. An empty
// path skips the file.
func Load(path string, opts ...Option) (*Store, error) {
	s := &Store{
		v:         viper.New(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}

	if path = strings.TrimSpace(path); path != "" {
		s.v.SetConfigFile(path)
		if err := s.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		s.fromFile = true
	}

	s.cur = s.resolve()
	return s, nil
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// AzureAI returns the current upstream settings.
func (s *Store) AzureAI() AzureAI {
	return s.Settings().AzureAI
}

// Set overrides key with value. Overrides survive config file reloads.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
	s.cur = s.resolve()
}

// Watch reloads settings whenever the config file changes. It is a no-op when
// no config file was loaded.
func (s *Store) Watch(log *slog.Logger) {
	if !s.fromFile {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		s.mu.Lock()
		s.cur = s.resolve()
		configured := s.cur.AzureAI.Configured()
		s.mu.Unlock()
		log.Info("configuration reloaded", "file", e.Name, "azure_ai_configured", configured)
	})
	s.v.WatchConfig()
}

func (s *Store) resolve() Settings {
	return Settings{
		AzureAI: AzureAI{
			Endpoint:       s.str(KeyEndpoint, EnvEndpoint, ""),
			DeploymentName: s.str(KeyDeploymentName, EnvDeploymentName, DefaultDeploymentName),
			TenantID:       s.str(KeyTenantID, EnvTenantID, ""),
			ClientID:       s.str(KeyClientID, "", ""),
			ClientSecret:   s.str(KeyClientSecret, "", ""),
		},
		ServerAddr:     s.str(KeyServerAddr, EnvServerAddr, DefaultServerAddr),
		AllowedOrigin:  s.str(KeyAllowedOrigin, EnvAllowedOrigin, DefaultAllowedOrigin),
		LogLevel:       s.str(KeyLogLevel, EnvLogLevel, DefaultLogLevel),
		LogJSON:        s.boolean(KeyLogJSON, EnvLogJSON, false),
		ParamPrefix:    strings.TrimRight(s.str(KeyParamPrefix, EnvParamPrefix, ""), "/"),
		AuditTable:     s.str(KeyAuditTable, EnvAuditTable, ""),
		MetricsEnabled: s.boolean(KeyMetricsEnabled, EnvMetricsEnabled, true),
	}
}

func (s *Store) str(key, env, def string) string {
	if v := strings.TrimSpace(s.v.GetString(key)); v != "" {
		return v
	}
	if env != "" {
		if v, ok := s.lookupEnv(env); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return def
}

func (s *Store) boolean(key, env string, def bool) bool {
	if s.v.IsSet(key) {
		return s.v.GetBool(key)
	}
	if v, ok := s.lookupEnv(env); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
