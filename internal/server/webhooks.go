package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type webhookCreateRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
	Active *bool    `json:"active,omitempty"`
}

func (s *Server) listWebhooks(c echo.Context) error {
	webhooks, err := s.webhooks.List()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, webhooks)
}

func (s *Server) getWebhook(c echo.Context) error {
	hook, err := s.webhooks.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, hook)
}

func (s *Server) createWebhook(c echo.Context) error {
	var req webhookCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" || len(req.Events) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "url and events are required")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	hook, err := s.webhooks.Create(req.URL, req.Events, req.Secret, active)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, hook)
}

func (s *Server) deleteWebhook(c echo.Context) error {
	deleted, err := s.webhooks.Delete(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "webhook '"+c.Param("id")+"' not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) testWebhook(c echo.Context) error {
	id := c.Param("id")
	if err := s.webhooks.Test(id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "test event sent to webhook " + id,
	})
}
