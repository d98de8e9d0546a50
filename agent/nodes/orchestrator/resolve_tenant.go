package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

func ResolveTenant(ctx context.Context, in *GraphState, tenants contractx.TenantDirectory) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Tenant = resolveTenant(ctx, tenants, in.Session.BusinessID)
	return in, nil
}

func resolveTenant(ctx context.Context, tenants contractx.TenantDirectory, businessID string) contractx.Tenant {
	if tenants == nil {
		return contractx.DefaultTenant(businessID)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutx.LookupTimeout)
	defer cancel()

	tenant, err := tenants.Tenant(ctx, businessID)
	if err != nil {
		ev := log.Warn()
		if errors.Is(err, contractx.ErrUnknownTenant) {
			ev = log.Debug()
		}
		ev.Err(err).Str("business_id", businessID).Msg("using default tenant settings")
		return contractx.DefaultTenant(businessID)
	}
	if tenant.ID == "" {
		tenant.ID = businessID
	}
	return tenant
}
