package middleware

import (
	"net/http"
	"strings"

	"measurement-service/pkg/jwtutil"
	"measurement-service/pkg/logger"
	"measurement-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const tenantIDKey = "tenant_id"

// AuthMiddleware validates the token and puts its tenant into the context.
// The Authorization header may hold "Bearer <token>" or the bare token.
func AuthMiddleware(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)
			prometheus.RecordAuthAttempt()

			tokenString, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			claims, err := jwt.ValidateToken(tokenString)
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			tenantID, ok := claims.Tenant()
			if !ok {
				log.Warn("JWT token does not identify a tenant", zap.Uint("user_id", claims.UserID))
				prometheus.RecordAuthError("missing_tenant")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token does not identify a company"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set(tenantIDKey, tenantID)
			c.Set("tenant_name", claims.TenantName)
			c.Set("user_role", claims.Role)

			log = log.With(zap.Uint("tenant_id", tenantID))
			c.Set(logger.EchoKey, log)
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), log)))

			log.Debug("Request authenticated", zap.Uint("user_id", claims.UserID))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	switch {
	case len(parts) == 1:
		return parts[0], true
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1], true
	default:
		return "", false
	}
}

// GetTenantIDFromContext retrieves the tenant ID from the context
// Returns 0, false if tenant ID is not found
func GetTenantIDFromContext(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get(tenantIDKey).(uint)
	return tenantID, ok && tenantID > 0
}
