package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orusagri/agrimon/internal/errs"
	"github.com/orusagri/agrimon/internal/model"
)

const userKey = "agrimon.user"

// currentUser returns the account attached by Authenticate, or nil.
func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// Logging returns middleware for structured request logging. Only metadata is
// logged, never payloads.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("remote", c.ClientIP()),
		)
	}
}

// Recover returns middleware that recovers from handler panics.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// Authenticate is stage one of the authorization gate: it requires a valid
// bearer token and resolves it to an active account, which is attached to the
// request context for downstream handlers.
func (s *Server) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "authorization token required")
			return
		}
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			abort(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "authorization token required")
			return
		}

		id, err := s.verifier.Verify(raw)
		if err != nil {
			if errors.Is(err, errs.ErrTokenExpired) {
				abort(c, http.StatusUnauthorized, "token expired")
			} else {
				abort(c, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		u, err := s.accounts.GetByID(c.Request.Context(), id)
		if err != nil {
			// do not reveal whether the token pointed at a real account
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		if !u.Active {
			abort(c, http.StatusUnauthorized, "account inactive")
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// RequireRoles is stage two: set-membership on the authenticated account's
// role. It must be wired after Authenticate; a missing account means the gate
// was misconfigured and the request is rejected as unauthenticated.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			abort(c, http.StatusUnauthorized, "unauthenticated")
			return
		}
		if !u.Role.In(roles...) {
			abort(c, http.StatusForbidden,
				fmt.Sprintf("role %q is not allowed to access this resource", u.Role))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
