package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/service"
)

// SessionHeader carries the browser-tab identity that owns a result-set controller.
const SessionHeader = "X-Session-ID"

const sessionContextKey = "session"

const maxSessionIDLength = 128

type sessionResolver interface {
	Get(id string) *service.Session
}

// Session resolves the caller's session from X-Session-ID and stores it on the context.
// Callers without the header share the default session.
func Session(registry sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if registry == nil {
			c.Next()
			return
		}
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if len(id) > maxSessionIDLength {
			id = id[:maxSessionIDLength]
		}
		session := registry.Get(id)
		c.Set(sessionContextKey, session)
		c.Writer.Header().Set(SessionHeader, session.ID)
		c.Next()
	}
}

// CurrentSession returns the session resolved for the request, or nil.
func CurrentSession(c *gin.Context) *service.Session {
	if c == nil {
		return nil
	}
	if v, exists := c.Get(sessionContextKey); exists {
		if s, ok := v.(*service.Session); ok {
			return s
		}
	}
	return nil
}

// WithSession attaches s to the context. Used by handlers under test and by
// callers that resolve sessions themselves.
func WithSession(c *gin.Context, s *service.Session) {
	c.Set(sessionContextKey, s)
}
