package http

import (
	"strings"

	"othello-live/internal/protocol"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionCookie = "sid"

// sessionToken reads a bearer token, falling back to the sid cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(sessionCookie); err == nil {
		return token
	}
	return ""
}

// authenticate resolves the caller or aborts the request.
func authenticate(c *gin.Context, proc *protocol.Processor) (string, bool) {
	userID, err := proc.Resolve(c.Request.Context(), sessionToken(c))
	if err != nil {
		abortWith(c, proc, err)
		return "", false
	}
	return userID, true
}

func abortWith(c *gin.Context, proc *protocol.Processor, err error) {
	proc.Fail(err, zap.String("path", c.FullPath()))
	e := protocol.AsError(err)
	c.AbortWithStatusJSON(e.Code, MessageResponse{Message: e.Message, Code: e.Code})
}
