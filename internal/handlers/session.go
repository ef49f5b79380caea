package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const sessionCookieName = "classroom_session"

// startSession opens a server-side session for userID and sets the cookie.
func (h *Handler) startSession(c *gin.Context, userID int) error {
	sess, err := h.services.Sessions.Start(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, sess.ID, maxAge, "/", "", h.opts.SecureCookie, true)
	c.Set(ctxSessionID, sess.ID)
	c.Set(ctxUserID, userID)
	return nil
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.opts.SecureCookie, true)
}
