package handlers

import (
	"embed"
	"html/template"
	"time"

	"classroom/internal/logger"
	"classroom/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Options carries the HTTP-layer settings taken from configuration.
type Options struct {
	SecureCookie  bool
	LoginAttempts int // per client IP within LoginWindow; 0 disables throttling
	LoginWindow   time.Duration
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
	limiter  *loginLimiter
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	return &Handler{
		services: services,
		log:      log,
		opts:     opts,
		limiter:  newLoginLimiter(opts.LoginAttempts, opts.LoginWindow),
	}
}

func parseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"first": firstError,
		"old":   oldValue,
	}).ParseFS(templateFS, "templates/*.tmpl"))
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)
	router.SetHTMLTemplate(parseTemplates())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerWebRoutes(router)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerWebRoutes(r *gin.Engine) {
	web := r.Group("/", h.loadSession)
	{
		web.GET("/login", h.guestOnly, h.showLogin)
		web.POST("/login", h.guestOnly, h.login)
		web.GET("/register", h.guestOnly, h.showRegister)
		web.POST("/register", h.guestOnly, h.register)
		web.POST("/logout", h.logout)

		web.GET("/home", h.authRequired, h.home)

		web.GET("/classroom", h.authRequired, h.listClassrooms)
		web.POST("/classroom", h.authRequired, h.createClassroom)
		web.POST("/classroom-add", h.authRequired, h.joinClassroom)
		web.GET("/classroom/:slug", h.authRequired, h.showClassroom)
		web.GET("/classroom/:slug/roster.xlsx", h.authRequired, h.exportRoster)

		// classroom list stream, authenticated by the session cookie
		web.GET("/ws", h.wsConnect)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	r.POST("/api/token", h.issueToken)

	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		classrooms := api.Group("/classrooms")
		{
			classrooms.GET("", h.listClassrooms)
			classrooms.POST("", h.createClassroom)
			classrooms.POST("/join", h.joinClassroom)
			classrooms.GET("/:slug", h.showClassroom)
		}
		api.GET("/logs", h.getLogs)
	}
}
