package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-reports/internal/domain"
	apperrors "github.com/spec-kit/civic-reports/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles.
// The role is read from the stored account, not from the token.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSelfOrRole lets the caller through when the route parameter names
// the caller's own id, or when the caller holds one of the allowed roles.
func RequireSelfOrRole(param string, allowed ...domain.Role) fiber.Handler {
	roleGuard := RequireRole(allowed...)
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.ID == c.Params(param) {
			return c.Next()
		}
		return roleGuard(c)
	}
}

// RequireAuthenticated ensures some principal is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
