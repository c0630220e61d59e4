package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orusagri/agrimon/internal/errs"
)

// fail is the single boundary translator: every handler error funnels through
// it and maps to a status code by sentinel. Unclassified errors become a
// generic 500; their detail reaches the client only in dev mode.
func (s *Server) fail(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrAlreadyExists):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrInvalidCredentials),
		errors.Is(err, errs.ErrInactiveAccount),
		errors.Is(err, errs.ErrTokenExpired),
		errors.Is(err, errs.ErrTokenMalformed),
		errors.Is(err, errs.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	default:
		s.log.Error("unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		message := "internal server error"
		if s.dev {
			message = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": message})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": err.Error()})
}

// badRequest reports a malformed body or path parameter.
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
