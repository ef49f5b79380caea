package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "classroom_flash"
	flashMaxAge     = 60
)

// flash is carried to the next request only.
type flash struct {
	Errors map[string][]string `json:"errors,omitempty"`
	Old    map[string]string   `json:"old,omitempty"`
}

func setFlash(c *gin.Context, f flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, base64.RawURLEncoding.EncodeToString(raw), flashMaxAge, "/", "", false, true)
}

// popFlash reads and clears the flash cookie. A missing or corrupt cookie
// yields an empty flash.
func popFlash(c *gin.Context) flash {
	var f flash
	v, err := c.Cookie(flashCookieName)
	if err != nil || v == "" {
		return f
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, "", -1, "/", "", false, true)

	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return flash{}
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return flash{}
	}
	return f
}

// firstError returns the first message for field, for templates.
func firstError(errs map[string][]string, field string) string {
	if msgs := errs[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func oldValue(old map[string]string, field string) string {
	return old[field]
}
