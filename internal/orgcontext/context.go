// Package orgcontext carries the resolved tenant through a request context.
package orgcontext

import (
	"context"

	orgdomain "github.com/clientcare/crm/internal/organization/domain"
)

type tenantKey struct{}

func WithTenant(ctx context.Context, tenant *orgdomain.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

func TenantFromContext(ctx context.Context) (*orgdomain.Tenant, bool) {
	tenant, ok := ctx.Value(tenantKey{}).(*orgdomain.Tenant)
	if !ok || tenant == nil {
		return nil, false
	}
	return tenant, true
}
