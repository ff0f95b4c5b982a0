package handler

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/accountd/internal/account"
	"github.com/jon4hz/accountd/internal/api/models"
)

// respondError writes the error envelope for err and aborts the request.
// Errors that are not an *account.Error are logged and reported as internal errors.
func respondError(c *gin.Context, err error) {
	var e *account.Error
	if errors.As(err, &e) {
		c.AbortWithStatusJSON(e.Status, models.NewErrorResponse(string(e.Code), e.Message, e.Fields))
		return
	}

	log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		models.NewErrorResponse(string(account.CodeInternal), "internal server error", nil))
}

// NotFound answers requests to unknown routes.
func NotFound(c *gin.Context) {
	// missing media files fall through here with the media content type already set
	c.Writer.Header().Del("Content-Type")
	c.AbortWithStatusJSON(http.StatusNotFound,
		models.NewErrorResponse(string(account.CodeNotFound), "resource not found", nil))
}

// MethodNotAllowed answers requests with a method the route does not accept.
func MethodNotAllowed(c *gin.Context) {
	respondError(c, account.ErrUnsupportedMethod(c.Request.Method))
}
