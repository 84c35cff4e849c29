package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentjobs/agentjobs/pkg/model"
)

type statusUpdateRequest struct {
	Status   string         `json:"status"`
	Author   string         `json:"author"`
	Summary  string         `json:"summary"`
	Details  string         `json:"details,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type progressUpdateRequest struct {
	Author  string `json:"author"`
	Summary string `json:"summary"`
	Details string `json:"details,omitempty"`
}

func (s *Server) postStatusUpdate(c echo.Context) error {
	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return httpError(err)
	}
	task, err := s.manager.UpdateStatus(c.Param("id"), status, req.Author, req.Summary, req.Details, req.Metadata)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) postProgressUpdate(c echo.Context) error {
	var req progressUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := s.manager.AddProgressUpdate(c.Param("id"), req.Author, req.Summary, req.Details)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}
