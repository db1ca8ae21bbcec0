package middleware

import (
	"context"
	"net/http"
	"strings"

	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/jwt"
	"conveycrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxRole     = "role"
	CtxTokenID  = "token_id"
	CtxTokenExp = "token_exp"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth requires a valid, unrevoked bearer token and stores its claims on the context.
func JWTAuth(tokens TokenValidator, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				zap.L().Error("revocation lookup failed", zap.Error(err))
				response.Abort(c, http.StatusInternalServerError, "Internal server error")
				return
			}
			if isRevoked {
				response.Abort(c, http.StatusUnauthorized, "Invalid token")
				return
			}
		}

		SetClaims(c, claims)
		c.Next()
	}
}

func SetClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxTokenID, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExp, claims.ExpiresAt.Time)
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tokenStr, tokenStr != ""
}

func UserID(c *gin.Context) string { return c.GetString(CtxUserID) }

// Actor is the authenticated caller as services see it.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{UserID: c.GetString(CtxUserID), Role: domain.UserRole(c.GetString(CtxRole))}
}

func Role(c *gin.Context) string { return c.GetString(CtxRole) }
