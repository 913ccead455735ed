package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/services"
)

// AuthMiddleware resolves bearer tokens into requesters
type AuthMiddleware struct {
	identity *services.IdentityService
	logger   *logrus.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(identity *services.IdentityService, logger *logrus.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logrus.New()
	}
	return &AuthMiddleware{identity: identity, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token. On success the
// requester is attached to the request context and its id to the gin context
// for request logging.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, no token"})
			return
		}

		requester, err := m.identity.Resolve(c.Request.Context(), token)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				m.logger.WithError(err).Error("Failed to resolve identity")
				c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, invalid token"})
			return
		}

		c.Set("user_id", requester.ID)
		c.Request = c.Request.WithContext(authz.WithRequester(c.Request.Context(), requester))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requester returns the identity set by RequireAuth, or nil
func requester(c *gin.Context) *authz.Requester {
	r, _ := authz.RequesterFromContext(c.Request.Context())
	return r
}

// RequestLogger logs one line per request
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"route":    c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields["user_id"] = userID
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request completed")
		default:
			entry.Debug("Request completed")
		}
	}
}
