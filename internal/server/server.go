// Package server exposes the lifecycle manager over HTTP: a JSON API
// under /api plus a minimal HTML dashboard. It owns the translation
// from the core error taxonomy to transport status codes.
package server

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/internal/manager"
	"github.com/agentjobs/agentjobs/internal/webhook"
	"github.com/agentjobs/agentjobs/templates"
)

type Server struct {
	echo        *echo.Echo
	manager     *manager.Manager
	webhooks    *webhook.Manager
	projectName string
	log         *zap.Logger
}

func New(m *manager.Manager, wm *webhook.Manager, projectName string, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if projectName == "" {
		projectName = "agentjobs"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	tmpl, err := template.ParseFS(templates.FS, "*.html")
	if err != nil {
		return nil, err
	}
	e.Renderer = &htmlRenderer{templates: tmpl}

	s := &Server{echo: e, manager: m, webhooks: wm, projectName: projectName, log: log}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.health)
	api.GET("/search", s.searchTasks)

	api.GET("/tasks", s.listTasks)
	api.POST("/tasks", s.createTask)
	api.GET("/tasks/next", s.nextTask)
	api.GET("/tasks/:id", s.getTask)
	api.PUT("/tasks/:id", s.replaceTask)
	api.PATCH("/tasks/:id", s.updateTask)
	api.DELETE("/tasks/:id", s.archiveTask)
	api.POST("/tasks/:id/status", s.postStatusUpdate)
	api.POST("/tasks/:id/progress", s.postProgressUpdate)
	api.GET("/tasks/:id/prompts/starter", s.getStarterPrompt)
	api.POST("/tasks/:id/prompts", s.addFollowupPrompt)
	api.POST("/tasks/:id/comments", s.addComment)
	api.PATCH("/tasks/:id/deliverables/*", s.markDeliverable)

	api.GET("/webhooks", s.listWebhooks)
	api.POST("/webhooks", s.createWebhook)
	api.GET("/webhooks/:id", s.getWebhook)
	api.DELETE("/webhooks/:id", s.deleteWebhook)
	api.POST("/webhooks/:id/test", s.testWebhook)

	s.echo.GET("/", s.dashboard)
	s.echo.GET("/tasks", s.taskListPage)
	s.echo.GET("/tasks/:id", s.taskDetailPage)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// httpError maps the core error taxonomy onto transport status codes.
func httpError(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperr.CodeNotFound:
			return echo.NewHTTPError(http.StatusNotFound, appErr.Error())
		case apperr.CodeConflict:
			return echo.NewHTTPError(http.StatusConflict, appErr.Error())
		case apperr.CodeInvalid:
			return echo.NewHTTPError(http.StatusBadRequest, appErr.Error())
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info("request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)))
			return err
		}
	}
}

type htmlRenderer struct {
	templates *template.Template
}

func (r *htmlRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
