package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// StaticTenants serves tenant configuration from memory.
type StaticTenants struct {
	mu      sync.RWMutex
	tenants map[string]contractx.Tenant
}

func NewStaticTenants(tenants ...contractx.Tenant) *StaticTenants {
	s := &StaticTenants{tenants: make(map[string]contractx.Tenant, len(tenants))}
	for _, t := range tenants {
		s.Put(t)
	}
	return s
}

func (s *StaticTenants) Put(t contractx.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[strings.TrimSpace(t.ID)] = t
}

func (s *StaticTenants) Tenant(ctx context.Context, businessID string) (contractx.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[strings.TrimSpace(businessID)]
	if !ok {
		return contractx.Tenant{}, fmt.Errorf("%w: %s", contractx.ErrUnknownTenant, businessID)
	}
	return t, nil
}

type tenantFile struct {
	Tenants []contractx.Tenant `mapstructure:"tenants"`
}

// LoadTenantFile reads a YAML, JSON or TOML file with a top-level "tenants" list.
func LoadTenantFile(path string) (*StaticTenants, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read tenant file: %w", err)
	}

	var file tenantFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decode tenant file: %w", err)
	}

	for i, t := range file.Tenants {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("%w: tenant #%d has no id", contractx.ErrValidation, i)
		}
	}
	return NewStaticTenants(file.Tenants...), nil
}
