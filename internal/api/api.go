package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/accountd/internal/account"
	"github.com/jon4hz/accountd/internal/api/handler"
	"github.com/jon4hz/accountd/internal/avatar"
	"github.com/jon4hz/accountd/internal/config"
	"github.com/jon4hz/accountd/internal/gravatar"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	svc       *account.Service
	gravatar  *gravatar.Resolver
	mediaDir  string
	maxUpload int64
	server    *http.Server
}

// New creates the API server and registers all routes.
// Uploaded files are served from mediaDir under the local storage URL prefix;
// an empty mediaDir serves nothing. maxUpload caps the size of an uploaded picture.
func New(cfg *config.Config, svc *account.Service, mediaDir string, maxUpload int64, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if svc == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if err := gravatar.Validate(cfg.Gravatar); err != nil {
		return nil, err
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ginEngine := gin.New()
	ginEngine.HandleMethodNotAllowed = true
	ginEngine.Use(gin.Recovery(), requestLogger())
	if cfg.Gzip {
		ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		svc:       svc,
		gravatar:  gravatar.New(cfg.Gravatar),
		mediaDir:  mediaDir,
		maxUpload: maxUpload,
		server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           ginEngine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	h := handler.New(s.svc, s.gravatar, s.maxUpload)

	s.ginEngine.NoRoute(handler.NotFound)
	s.ginEngine.NoMethod(handler.MethodNotAllowed)

	if s.mediaDir != "" {
		s.ginEngine.Group("", mediaHeaders()).Static(s.cfg.Storage.Local.URLPrefix, s.mediaDir)
	}

	api := s.ginEngine.Group(s.cfg.BasePath)
	users := api.Group("/users/:id")

	users.GET("/", h.GetUser)
	anyWrite(users, "/update/", h.UpdateUser)
	anyWrite(users, "/profile-picture/", h.UpdateProfilePicture)
	anyWrite(users, "/update-password/", h.ChangePassword)

	users.GET("/notifications/", h.GetNotificationSettings)
	anyWrite(users, "/notifications/update/", h.UpdateNotificationSettings)

	users.GET("/theme/", h.GetThemeSettings)
	anyWrite(users, "/theme/update/", h.UpdateThemeSettings)

	users.GET("/privacy/", h.GetPrivacySettings)
	anyWrite(users, "/privacy/update/", h.UpdatePrivacySettings)
}

// anyWrite registers h for every method that may carry an update.
func anyWrite(g *gin.RouterGroup, path string, h gin.HandlerFunc) {
	g.POST(path, h)
	g.PUT(path, h)
	g.PATCH(path, h)
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting API server", "listen", s.cfg.Listen, "base_path", s.cfg.BasePath)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down API server", "timeout", s.cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx) //nolint:contextcheck
	})

	return g.Wait()
}

// mediaHeaders pins the content type of served uploads to their extension
// so browsers never render an upload as a page.
func mediaHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Type", avatar.ContentType(path.Ext(c.Request.URL.Path)))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"size", humanize.Bytes(uint64(max(c.Writer.Size(), 0))), //nolint:gosec
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
