package server

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/pkg/model"
)

type dashboardData struct {
	ProjectName string
	Total       int
	ByStatus    map[model.Status]int
	Active      []model.Task
	Recent      []recentUpdate
}

type recentUpdate struct {
	TaskID    string
	TaskTitle string
	Update    model.StatusUpdate
}

func (s *Server) dashboard(c echo.Context) error {
	tasks, err := s.manager.List(nil, nil)
	if err != nil {
		return httpError(err)
	}

	data := dashboardData{
		ProjectName: s.projectName,
		Total:       len(tasks),
		ByStatus:    make(map[model.Status]int),
	}
	var recent []recentUpdate
	for _, task := range tasks {
		data.ByStatus[task.Status]++
		if task.IsActive() {
			data.Active = append(data.Active, task)
		}
		for _, update := range task.StatusUpdates {
			recent = append(recent, recentUpdate{TaskID: task.ID, TaskTitle: task.Title, Update: update})
		}
	}

	sort.SliceStable(data.Active, func(i, j int) bool {
		ri, rj := data.Active[i].Priority.Rank(), data.Active[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return data.Active[i].Updated.After(data.Active[j].Updated)
	})
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Update.Timestamp.After(recent[j].Update.Timestamp)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}
	data.Recent = recent

	return c.Render(http.StatusOK, "dashboard.html", data)
}

func (s *Server) taskListPage(c echo.Context) error {
	status, priority, err := parseFilters(c)
	if err != nil {
		return httpError(err)
	}
	tasks, err := s.manager.List(status, priority)
	if err != nil {
		return httpError(err)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].Updated.Equal(tasks[j].Updated) {
			return tasks[i].Updated.After(tasks[j].Updated)
		}
		return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
	})

	return c.Render(http.StatusOK, "task_list.html", map[string]any{
		"ProjectName": s.projectName,
		"Tasks":       tasks,
	})
}

func (s *Server) taskDetailPage(c echo.Context) error {
	task, err := s.manager.Get(c.Param("id"))
	if err != nil {
		if apperr.IsNotFound(err) {
			return c.Render(http.StatusNotFound, "404.html", map[string]any{
				"ProjectName": s.projectName,
				"TaskID":      c.Param("id"),
			})
		}
		return httpError(err)
	}
	return c.Render(http.StatusOK, "task_detail.html", map[string]any{
		"ProjectName": s.projectName,
		"Task":        task,
	})
}
