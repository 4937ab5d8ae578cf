package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakeshmondal461/marketplace-proto/pkg/jwtutil"
	"github.com/rakeshmondal461/marketplace-proto/pkg/logger"
	"github.com/rakeshmondal461/marketplace-proto/prometheus"
)

// Context keys set by Authenticate and read by handlers and RequireRoles
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// Authenticate validates the bearer token from the Authorization header and
// attaches the resolved identity to the request context. Tokens issued by
// the OAuth bridge carry a provider identity with no local user row; those
// are rejected here because no role can be resolved for them.
func Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if claims.UserID == 0 {
			// Provider-scoped token: the external identity was never linked
			// to a local account, so there is nothing to act as.
			log.Warn("Token is not linked to a local account",
				zap.String("provider", claims.Provider),
				zap.String("provider_id", claims.ProviderID))
			prometheus.RecordAuthError("unlinked_identity")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is not linked to a local account"})
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		return next(c)
	}
}

// RequireRoles accepts the request only if the identity attached by
// Authenticate carries one of the allowed roles. A missing identity yields
// 401, never 403: protected routes must run Authenticate first.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			role, ok := c.Get(ContextRole).(string)
			if !ok {
				log.Warn("No identity attached to request")
				prometheus.RecordAuthError("missing_identity")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			if _, ok := allowed[role]; !ok {
				log.Warn("Role not permitted for route",
					zap.String("role", role),
					zap.Strings("allowed", roles))
				prometheus.RecordAuthError("forbidden_role")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}

			return next(c)
		}
	}
}
