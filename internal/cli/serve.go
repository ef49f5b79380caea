package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	_ "classroom/docs"
	"classroom/internal/config"
	"classroom/internal/handlers"
	"classroom/internal/logger"
	"classroom/internal/models"
	"classroom/internal/repository"
	"classroom/internal/repository/db"
	"classroom/internal/server"
	"classroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Migrate the database, start the session sweeper and serve the web and API routes
until SIGINT or SIGTERM.

Example:
  classroom serve --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "", "HTTP port (overrides server.port)")
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(ctx context.Context) error {
	if cfg.Log.Level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("init sqlite: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			appLogger.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(conn)
	if cfg.Session.Store == "redis" {
		rdb, err := repository.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		repos.Sessions = repository.NewSessionRedis(rdb)
	}
	appLogger.Infow("storage ready", "db", cfg.DB.Path, "session_store", cfg.Session.Store)

	services := service.NewService(repos, serviceOptions(cfg, appLogger))
	h := handlers.NewHandler(services, appLogger, handlers.Options{
		SecureCookie:  cfg.Session.SecureCookie,
		LoginAttempts: cfg.Auth.LoginAttempts,
		LoginWindow:   cfg.Auth.LoginWindow,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go services.Sweeper.Run(ctx, cfg.Session.SweepInterval)

	srv := server.New(server.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(cfg.Server.Port, h.InitRoutes())
	}()
	appLogger.Infow("server started", "port", cfg.Server.Port)

	select {
	case err := <-errCh:
		if err == nil {
			err = errors.New("server stopped unexpectedly")
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	appLogger.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func serviceOptions(c *config.Config, log *logger.Logger) service.Options {
	return service.Options{
		SigningKey:      c.Auth.SigningKey,
		TokenTTL:        c.Auth.TokenTTL,
		SessionLifetime: c.Session.Lifetime,
		SweepObserver: func(removed int64, err error) {
			if err != nil {
				log.Errorw("session_sweep_failed", "err", err)
				return
			}
			if removed > 0 {
				log.Infow("session_sweep", "removed", removed)
			}
		},
		AuditObserver: func(e models.Event, err error) {
			log.Errorw("event_append_failed", "err", err, "type", e.Type, "userId", e.UserID)
		},
	}
}
