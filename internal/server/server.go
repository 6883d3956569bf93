// Package server assembles the HTTP API: middleware, feature handlers and the
// operational endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zyboard/internal/config"
	"zyboard/internal/domain/activity"
	"zyboard/internal/domain/auth"
	"zyboard/internal/domain/files"
	"zyboard/internal/domain/notification"
	"zyboard/internal/domain/profile"
	"zyboard/internal/domain/team"
	"zyboard/internal/metrics"
	"zyboard/internal/middleware"
	"zyboard/internal/objectstore"
	"zyboard/internal/pkg/jwt"
	"zyboard/internal/pkg/response"
	"zyboard/internal/repository"
)

// ShutdownTimeout bounds how long in-flight requests may drain.
const ShutdownTimeout = 10 * time.Second

// Deps are the long-lived resources shared by every request.
type Deps struct {
	Store   repository.Store
	Objects objectstore.Store
	Metrics *metrics.Metrics
	Hub     *notification.Hub
}

// New builds the gin engine. A nil Metrics or Hub is replaced by a fresh one.
func New(cfg *config.Config, deps Deps, log *slog.Logger) *gin.Engine {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Hub == nil {
		deps.Hub = notification.NewHub(log)
	}
	response.ExposeDetails(!cfg.IsProdLike())

	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	activityService := activity.NewService(deps.Store, log)
	notificationService := notification.NewService(deps.Store, deps.Hub, log)
	authService := auth.NewService(deps.Store, jwtService, activityService, notificationService, cfg.DefaultQuota, log)
	filesService := files.NewService(deps.Store, deps.Objects, activityService, notificationService, deps.Metrics,
		files.Config{MaxUploadSize: cfg.MaxUploadSize, DefaultQuota: cfg.DefaultQuota}, log)
	teamService := team.NewService(deps.Store, activityService, notificationService, log)
	profileService := profile.NewService(authService, deps.Store)

	authHandler := auth.NewHandler(authService)
	filesHandler := files.NewHandler(filesService)
	activityHandler := activity.NewHandler(activityService)
	notificationHandler := notification.NewHandler(notificationService, deps.Hub, jwtService, cfg.CORSAllowedOrigins, log)
	teamHandler := team.NewHandler(teamService)
	profileHandler := profile.NewHandler(profileService)

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Metrics(deps.Metrics),
	)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler(deps.Store, deps.Objects))

		// public
		authHandler.RegisterPublicRoutes(api)
		notificationHandler.RegisterPublicRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			profileHandler.RegisterProtectedRoutes(protected)
			filesHandler.RegisterProtectedRoutes(protected)
			activityHandler.RegisterProtectedRoutes(protected)
			notificationHandler.RegisterProtectedRoutes(protected)
			teamHandler.RegisterProtectedRoutes(protected)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	return r
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight
// requests for at most ShutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}
