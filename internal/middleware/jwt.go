package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/auth"
	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
)

const (
	// ContextAccountID is the key for the account ID in gin context.
	ContextAccountID = "account_id"
	// ContextAccountEmail is the key for the account email in gin context.
	ContextAccountEmail = "account_email"
)

// ViewerResolver loads the profiles behind an account.
type ViewerResolver interface {
	Resolve(ctx context.Context, accountID int64) (identity.Viewer, error)
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func attach(c *gin.Context, v identity.Viewer) {
	c.Set(ContextAccountID, v.AccountID)
	c.Set(ContextAccountEmail, v.Email)
	c.Request = c.Request.WithContext(identity.WithViewer(c.Request.Context(), v))
}

// JWT returns a middleware that requires a valid bearer token and stores the resolved
// viewer in the request context.
func JWT(jwtService *auth.JWTService, resolver ViewerResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			response.Unauthorized(c, "missing or invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		v, err := resolver.Resolve(c.Request.Context(), claims.AccountID)
		if errors.Is(err, identity.ErrUnauthenticated) {
			response.Unauthorized(c, "account no longer exists")
			c.Abort()
			return
		}
		if err != nil {
			logger.Error("resolve viewer failed", zap.Int64("account_id", claims.AccountID), zap.Error(err))
			response.Internal(c, "internal error")
			c.Abort()
			return
		}
		attach(c, v)
		c.Next()
	}
}

// OptionalJWT resolves the viewer when a valid bearer token is present and otherwise
// continues as anonymous.
func OptionalJWT(jwtService *auth.JWTService, resolver ViewerResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		v, err := resolver.Resolve(c.Request.Context(), claims.AccountID)
		if err != nil {
			if !errors.Is(err, identity.ErrUnauthenticated) {
				logger.Warn("resolve viewer failed", zap.Int64("account_id", claims.AccountID), zap.Error(err))
			}
			c.Next()
			return
		}
		attach(c, v)
		c.Next()
	}
}

// Require returns a middleware that lets the request through only when every guard allows
// the current viewer.
func Require(guards ...identity.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := identity.Check(identity.FromContext(c.Request.Context()), guards...)
		switch {
		case err == nil:
			c.Next()
			return
		case errors.Is(err, identity.ErrUnauthenticated):
			response.Unauthorized(c, err.Error())
		default:
			response.Forbidden(c, err.Error())
		}
		c.Abort()
	}
}
