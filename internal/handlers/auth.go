package handlers

import (
	"errors"
	"net/http"

	"classroom/internal/service"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (r *loginRequest) oldInput() map[string]string {
	return map[string]string{"email": r.Email}
}

type registerRequest struct {
	Name                 string `form:"name" json:"name" binding:"required,max=255"`
	Email                string `form:"email" json:"email" binding:"required,email,max=255"`
	Password             string `form:"password" json:"password" binding:"required,min=6"`
	PasswordConfirmation string `form:"password_confirmation" json:"password_confirmation" binding:"required,eqfield=Password"`
}

// passwords are never echoed back
func (r *registerRequest) oldInput() map[string]string {
	return map[string]string{"name": r.Name, "email": r.Email}
}

// TokenRequest is the body of POST /api/token.
type TokenRequest struct {
	Email    string `json:"email" binding:"required" example:"saif@gmail.com"`
	Password string `json:"password" binding:"required" example:"123456"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("auth_bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) showLogin(c *gin.Context) {
	f := popFlash(c)
	c.HTML(http.StatusOK, "login.tmpl", gin.H{"errors": f.Errors, "old": f.Old})
}

// @Summary      Log in
// @Description  Form or JSON login. Success sets the session cookie and redirects to /classroom.
// @Tags         auth
// @Accept       json
// @Param        email     formData  string  true  "Email"
// @Param        password  formData  string  true  "Password"
// @Success      302
// @Failure      422  {object}  map[string]interface{}  "message, errors"
// @Failure      429  {object}  map[string]interface{}  "message, errors"
// @Router       /login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindOrReject(c, &input, "/login"); !ok {
		return
	}

	ip := c.ClientIP()
	if !h.limiter.Allow(ip) {
		if h.log != nil {
			h.log.Infow("auth_login_throttled", "ip", ip)
		}
		h.reject(c, http.StatusTooManyRequests, msgTooManyAttempts,
			map[string][]string{"email": {msgTooManyAttempts}}, "/login", input.oldInput())
		return
	}

	u, err := h.services.Authorization.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if h.log != nil {
				h.log.Infow("auth_login_failed", "email", input.Email, "ip", ip)
			}
			h.rejectInput(c, map[string][]string{"email": {msgBadCredentials}}, "/login", input.oldInput())
			return
		}
		h.internalError(c, "auth_login_error", err)
		return
	}
	h.limiter.Reset(ip)

	if err := h.startSession(c, u.ID); err != nil {
		h.internalError(c, "auth_session_start_failed", err, "userId", u.ID)
		return
	}
	c.Redirect(http.StatusFound, "/classroom")
}

func (h *Handler) logout(c *gin.Context) {
	if id := c.GetString(ctxSessionID); id != "" {
		if err := h.services.Sessions.End(c.Request.Context(), id); err != nil && h.log != nil {
			h.log.Errorw("auth_logout_failed", "err", err)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/classroom")
}

func (h *Handler) showRegister(c *gin.Context) {
	f := popFlash(c)
	c.HTML(http.StatusOK, "register.tmpl", gin.H{"errors": f.Errors, "old": f.Old})
}

// @Summary      Register
// @Description  Creates the account, logs it in and redirects to /home.
// @Tags         auth
// @Accept       json
// @Param        body  body  registerRequest  true  "Registration payload"
// @Success      302
// @Failure      422  {object}  map[string]interface{}  "message, errors"
// @Router       /register [post]
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindOrReject(c, &input, "/register"); !ok {
		return
	}

	u, err := h.services.Authorization.Register(c.Request.Context(), service.RegisterParams{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			h.rejectInput(c, map[string][]string{"email": {msgEmailTaken}}, "/register", input.oldInput())
			return
		}
		h.internalError(c, "auth_register_failed", err, "email", input.Email)
		return
	}
	if h.log != nil {
		h.log.Infow("auth_registered", "userId", u.ID)
	}

	if err := h.startSession(c, u.ID); err != nil {
		h.internalError(c, "auth_session_start_failed", err, "userId", u.ID)
		return
	}
	c.Redirect(http.StatusFound, "/home")
}

// @Summary      Issue API token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  TokenRequest  true  "Credentials"
// @Success      200  {object}  map[string]string  "token"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/token [post]
func (h *Handler) issueToken(c *gin.Context) {
	var input TokenRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.Authorization.GenerateToken(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if h.log != nil {
				h.log.Infow("auth_token_denied", "email", input.Email)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, "auth_token_failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
