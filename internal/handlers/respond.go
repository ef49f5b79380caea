package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// User-facing messages.
const (
	msgInvalidData      = "The given data was invalid."
	msgBadCredentials   = "These credentials do not match our records."
	msgTooManyAttempts  = "Too many login attempts. Please try again later."
	msgEmailTaken       = "The email has already been taken."
	msgSlugTaken        = "The slug has already been taken."
	msgClassroomInvalid = "The selected classroom is invalid."

	errInternal    = "internal server error"
	errInvalidBody = "invalid request body"
)

// input is a request payload that can echo itself back to a form.
type input interface {
	oldInput() map[string]string
}

// wantsJSON reports whether the client expects a JSON answer rather than a
// redirect.
func wantsJSON(c *gin.Context) bool {
	if c.GetBool(ctxAPI) {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), binding.MIMEJSON) {
		return true
	}
	return c.ContentType() == binding.MIMEJSON
}

// bindOrReject binds the request into dst. On failure it answers the request
// itself and returns false.
func (h *Handler) bindOrReject(c *gin.Context, dst input, back string) bool {
	err := bindInput(c, dst)
	if err == nil {
		return true
	}
	errs, ok := fieldErrors(err)
	if !ok {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.Request.URL.Path, "err", err)
		}
		if wantsJSON(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
			return false
		}
		c.String(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return false
	}
	h.rejectInput(c, errs, back, dst.oldInput())
	return false
}

// rejectInput answers 422 to JSON clients and sends form posts back with the
// errors and old input flashed.
func (h *Handler) rejectInput(c *gin.Context, errs map[string][]string, back string, old map[string]string) {
	h.reject(c, http.StatusUnprocessableEntity, msgInvalidData, errs, back, old)
}

func (h *Handler) reject(c *gin.Context, status int, message string, errs map[string][]string, back string, old map[string]string) {
	if wantsJSON(c) {
		c.JSON(status, gin.H{"message": message, "errors": errs})
		return
	}
	setFlash(c, flash{Errors: errs, Old: old})
	c.Redirect(http.StatusFound, back)
}

func (h *Handler) logInfo(key string, kv ...interface{}) {
	if h.log != nil {
		h.log.Infow(key, kv...)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

func (h *Handler) internalError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if wantsJSON(c) {
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
		return
	}
	if h.log != nil {
		h.log.Errorw(logKey, append([]interface{}{"err", err}, kv...)...)
	}
	c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func notFound(c *gin.Context) {
	if wantsJSON(c) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found."})
		return
	}
	c.String(http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
