package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"classroom/internal/models"
	"classroom/internal/service"

	"github.com/gin-gonic/gin"
)

// gin context keys
const (
	ctxUserID    = "userId"
	ctxUser      = "user"
	ctxSessionID = "sessionId"
	ctxAPI       = "api"
)

func currentUserID(c *gin.Context) int {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int)
	return id
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// requestLogger writes one line per request.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"ip", c.ClientIP(),
	)
}

// loadSession resolves the session cookie into the current user. A missing,
// expired or orphaned session leaves the request as a guest.
func (h *Handler) loadSession(c *gin.Context) {
	id, err := c.Cookie(sessionCookieName)
	if err != nil || id == "" {
		c.Next()
		return
	}

	ctx := c.Request.Context()
	sess, err := h.services.Sessions.Resolve(ctx, id)
	if err != nil {
		if !errors.Is(err, service.ErrSessionNotFound) && h.log != nil {
			h.log.Errorw("session_resolve_failed", "err", err)
		}
		h.clearSessionCookie(c)
		c.Next()
		return
	}

	u, err := h.services.Authorization.UserByID(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, service.ErrUserNotFound) && h.log != nil {
			h.log.Errorw("session_user_lookup_failed", "err", err, "userId", sess.UserID)
		}
		h.clearSessionCookie(c)
		c.Next()
		return
	}

	c.Set(ctxSessionID, sess.ID)
	c.Set(ctxUserID, u.ID)
	c.Set(ctxUser, u)
	c.Next()
}

// authRequired sends guests to the login form, or answers 401 to JSON clients.
func (h *Handler) authRequired(c *gin.Context) {
	if currentUserID(c) != 0 {
		c.Next()
		return
	}
	if wantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

// guestOnly sends authenticated users home.
func (h *Handler) guestOnly(c *gin.Context) {
	if currentUserID(c) == 0 {
		c.Next()
		return
	}
	c.Redirect(http.StatusFound, "/home")
	c.Abort()
}

func (h *Handler) userIdMiddleware(c *gin.Context) {
	c.Set(ctxAPI, true)

	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, userId)
	c.Next()
}
