package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clientcare/crm/internal/identity"
	obscontext "github.com/clientcare/crm/internal/observability/context"
	"github.com/clientcare/crm/internal/orgcontext"
	organizationdomain "github.com/clientcare/crm/internal/organization/domain"
)

const (
	contextPrincipalKey = "principal"
	contextTenantKey    = "tenant"
)

// AuthRequired extracts the bearer token and resolves it to a Principal.
// Every failure mode collapses to 401.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPrincipalKey, principal)
		c.Next()
	}
}

// OrgContext resolves the caller's single organization membership and
// stores the tenant for handlers downstream. Runs after AuthRequired.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		tenant, err := s.organizationSvc.ResolveTenant(c.Request.Context(), principal.ID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextTenantKey, tenant)
		ctx := orgcontext.WithTenant(c.Request.Context(), tenant)
		ctx = obscontext.WithOrgID(ctx, tenant.OrgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole gates a route on the tenant role allow-list.
func RequireRole(roles ...organizationdomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := tenantFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !tenant.Role.OneOf(roles...) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func CORS(allowOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowOrigins))
	allowAll := false
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func principalFromContext(c *gin.Context) (*identity.Principal, bool) {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*identity.Principal)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}

func tenantFromContext(c *gin.Context) (*organizationdomain.Tenant, bool) {
	value, ok := c.Get(contextTenantKey)
	if !ok {
		return nil, false
	}
	tenant, ok := value.(*organizationdomain.Tenant)
	if !ok || tenant == nil {
		return nil, false
	}
	return tenant, true
}
