package middleware

import (
	"net/http"

	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Permission string

const (
	PermLeadsRead      Permission = "leads:read"
	PermLeadsWrite     Permission = "leads:write"
	PermLeadsAssign    Permission = "leads:assign"
	PermAttemptsWrite  Permission = "attempts:write"
	PermOutcomesRead   Permission = "outcomes:read"
	PermOutcomesManage Permission = "outcomes:manage"
	PermQuotasRead     Permission = "quotas:read"
	PermQuotasManage   Permission = "quotas:manage"
	PermQuotasOverride Permission = "quotas:override"
	PermQuotesRead     Permission = "quotes:read"
	PermQuotesWrite    Permission = "quotes:write"
	PermPaymentsRead   Permission = "payments:read"
	PermPaymentsWrite  Permission = "payments:write"
	PermReportsRead    Permission = "reports:read"
	PermUsersManage    Permission = "users:manage"
)

var agentPermissions = []Permission{
	PermLeadsRead, PermLeadsWrite, PermAttemptsWrite, PermOutcomesRead,
	PermQuotasRead, PermQuotesRead, PermQuotesWrite, PermPaymentsRead,
}

var managerPermissions = append([]Permission{
	PermLeadsAssign, PermOutcomesManage, PermQuotasManage, PermQuotasOverride,
	PermPaymentsWrite, PermReportsRead,
}, agentPermissions...)

var adminPermissions = append([]Permission{PermUsersManage}, managerPermissions...)

// capabilities is the single role table consulted at the API boundary.
var capabilities = map[domain.UserRole]map[Permission]bool{
	domain.RoleAgent:   toSet(agentPermissions),
	domain.RoleManager: toSet(managerPermissions),
	domain.RoleAdmin:   toSet(adminPermissions),
}

func toSet(perms []Permission) map[Permission]bool {
	out := make(map[Permission]bool, len(perms))
	for _, p := range perms {
		out[p] = true
	}
	return out
}

// Can reports whether role holds perm.
func Can(role string, perm Permission) bool {
	return capabilities[domain.UserRole(role)][perm]
}

// RequirePermission aborts with 403 unless the authenticated role holds perm.
func RequirePermission(perm Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxRole)
		if !exists {
			response.Abort(c, http.StatusUnauthorized, "No token provided")
			return
		}
		if !Can(role.(string), perm) {
			response.Abort(c, http.StatusForbidden, "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}
