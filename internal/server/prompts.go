package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentjobs/agentjobs/pkg/model"
)

type promptAddRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Context string `json:"context,omitempty"`
}

type commentAddRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`
}

func (s *Server) getStarterPrompt(c echo.Context) error {
	id := c.Param("id")
	starter, err := s.manager.GetStarterPrompt(id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"task_id": id, "starter": starter})
}

func (s *Server) addFollowupPrompt(c echo.Context) error {
	var req promptAddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := s.manager.AddFollowupPrompt(c.Param("id"), req.Author, req.Content, req.Context)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) addComment(c echo.Context) error {
	var req commentAddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	kind := model.CommentKind(req.Kind)
	if req.Kind != "" {
		parsed, err := model.ParseCommentKind(req.Kind)
		if err != nil {
			return httpError(err)
		}
		kind = parsed
	}
	comment, err := s.manager.AddComment(c.Param("id"), req.Author, req.Content, kind, req.ReplyTo)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}
