package routes

import (
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func GetProjectsHandler(c echo.Context) error {
	type getProjectsQuery struct {
		Status       string `query:"status"`
		ResearcherID string `query:"researcher_id"`
		Limit        int64  `query:"limit"`
	}

	type getProjectsResponse struct {
		Message  string          `json:"message"`
		Count    int             `json:"count"`
		Projects []model.Project `json:"projects"`
	}

	query := new(getProjectsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, getProjectsResponse{
			Message: "Invalid query params",
		})
	}
	if query.Status != "" && !model.ValidProjectStatus(query.Status) {
		return c.JSON(http.StatusBadRequest, getProjectsResponse{
			Message: "Invalid project status",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	projects, err := eng.ListProjects(c.Request().Context(), query.Status, query.ResearcherID, query.Limit)
	if err != nil {
		logger.Error("Failed to list projects", "err", err)
		return c.JSON(http.StatusInternalServerError, getProjectsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getProjectsResponse{
		Message:  "Projects found",
		Count:    len(projects),
		Projects: projects,
	})
}

func GetProjectHandler(c echo.Context) error {
	type getProjectResponse struct {
		Message string         `json:"message"`
		Project *model.Project `json:"project,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getProjectResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	project, err := eng.GetProject(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getProjectResponse{
				Message: "Project not found",
			})
		}
		logger.Error("Failed to get project", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getProjectResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getProjectResponse{
		Message: "Project found",
		Project: &project,
	})
}
