package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agentjobs/agentjobs/internal/manager"
	"github.com/agentjobs/agentjobs/pkg/model"
)

// parseFilters normalizes the optional status/priority query parameters
// once at the transport edge; everything past this point works with the
// closed enum types.
func parseFilters(c echo.Context) (*model.Status, *model.Priority, error) {
	var status *model.Status
	var priority *model.Priority

	if raw := c.QueryParam("status"); raw != "" {
		parsed, err := model.ParseStatus(raw)
		if err != nil {
			return nil, nil, err
		}
		status = &parsed
	}
	if raw := c.QueryParam("priority"); raw != "" {
		parsed, err := model.ParsePriority(raw)
		if err != nil {
			return nil, nil, err
		}
		priority = &parsed
	}
	return status, priority, nil
}

func (s *Server) listTasks(c echo.Context) error {
	status, priority, err := parseFilters(c)
	if err != nil {
		return httpError(err)
	}
	tasks, err := s.manager.List(status, priority)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) nextTask(c echo.Context) error {
	_, priority, err := parseFilters(c)
	if err != nil {
		return httpError(err)
	}
	task, err := s.manager.GetNextTask(priority)
	if err != nil {
		return httpError(err)
	}
	if task == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) getTask(c echo.Context) error {
	task, err := s.manager.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) createTask(c echo.Context) error {
	var req manager.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := s.manager.Create(req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) replaceTask(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := s.manager.Replace(c.Param("id"), patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var patch model.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if patch.IsEmpty() {
		return echo.NewHTTPError(http.StatusBadRequest, "no updates provided")
	}
	task, err := s.manager.Update(c.Param("id"), patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

// archiveTask backs DELETE /api/tasks/:id. Deletion over the API is an
// archive; hard removal stays a CLI operation.
func (s *Server) archiveTask(c echo.Context) error {
	task, err := s.manager.Archive(c.Param("id"), "")
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) markDeliverable(c echo.Context) error {
	task, err := s.manager.MarkDeliverableComplete(c.Param("id"), c.Param("*"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) searchTasks(c echo.Context) error {
	q := c.QueryParam("q")
	tasks, err := s.manager.Search(q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}
