package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-chat/internal/integrations/paramstore"
)

// ParamGetter reads one remote parameter by name.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

var remoteParameters = []struct {
	suffix string
	key    string
}{
	{suffix: "/azure-ai/endpoint", key: KeyEndpoint},
	{suffix: "/azure-ai/deployment-name", key: KeyDeploymentName},
	{suffix: "/azure-ai/tenant-id", key: KeyTenantID},
	{suffix: "/azure-ai/client-id", key: KeyClientID},
	{suffix: "/azure-ai/client-secret", key: KeyClientSecret},
}

// ApplyParameters reads the Azure AI parameters under prefix and sets each one
// found as an override. Missing parameters are skipped. It returns the number
// of overrides applied.
func (s *Store) ApplyParameters(ctx context.Context, g ParamGetter, prefix string) (int, error) {
	if g == nil {
		return 0, errors.New("config: param getter must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return 0, errors.New("config: parameter prefix must not be empty")
	}

	applied := 0
	for _, p := range remoteParameters {
		val, err := g.GetParameter(ctx, prefix+p.suffix)
		if errors.Is(err, paramstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("config: load %s: %w", p.suffix, err)
		}
		if val = strings.TrimSpace(val); val == "" {
			continue
		}
		s.Set(p.key, val)
		applied++
	}
	return applied, nil
}
