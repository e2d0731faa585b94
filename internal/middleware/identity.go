package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/handlers"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
	"github.com/harvlabs/harv-backend/internal/requestdata"
)

// IdentityMiddleware trusts the upstream gateway's X-User-ID header. The
// engine does no authentication of its own.
type IdentityMiddleware struct {
	log *logger.Logger
}

func NewIdentityMiddleware(log *logger.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{log: log.With("middleware", "IdentityMiddleware")}
}

func (m *IdentityMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			handlers.RespondError(c, http.StatusUnauthorized, "missing_identity", fmt.Errorf("missing X-User-ID header"))
			c.Abort()
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			handlers.RespondError(c, http.StatusUnauthorized, "bad_identity", fmt.Errorf("invalid X-User-ID header"))
			c.Abort()
			return
		}

		role := types.Role(c.GetHeader("X-User-Role"))
		switch role {
		case types.RoleStudent, types.RoleEducator, types.RoleAdmin:
		default:
			role = types.RoleStudent
		}

		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			UserID: userID,
			Role:   role,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole gates educator and admin endpoints.
func (m *IdentityMiddleware) RequireRole(target types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || !types.CanAccess(rd.Role, target) {
			handlers.RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("role %q required", target))
			c.Abort()
			return
		}
		c.Next()
	}
}
