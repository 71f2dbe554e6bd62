package middleware

import (
	"net/http"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireRole checks that the token carries one of the given roles.
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
	}
}

// RequireAdmin is RequireRole(model.UserRoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.UserRoleAdmin)
}
