package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpost/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	contextTokenKey    = "token"
	contextTokenExpKey = "token_exp"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

// RevocationChecker reports revoked tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired(tokens TokenParser, revoked RevocationChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if revoked != nil && revoked.IsRevoked(ctx.Request.Context(), tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(contextTokenKey, tokenString)
		if claims.ExpiresAt != nil {
			ctx.Set(contextTokenExpKey, claims.ExpiresAt.Time)
		}
		ctx.Next()
	}
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(ctx *gin.Context) uint {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}

// CurrentToken returns the bearer token accepted by AuthRequired and its expiry.
func CurrentToken(ctx *gin.Context) (string, time.Time) {
	tok := ctx.GetString(contextTokenKey)
	exp, _ := ctx.Get(contextTokenExpKey)
	t, _ := exp.(time.Time)
	return tok, t
}
