package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func CreateProjectHandler(c echo.Context) error {
	type createProjectBody struct {
		Title        string             `json:"title" validate:"required"`
		Description  string             `json:"description"`
		Status       string             `json:"status"`
		Timeline     model.Timeline     `json:"timeline"`
		Funding      model.Funding      `json:"funding"`
		Participants model.Participants `json:"participants"`
	}

	type createProjectResponse struct {
		Message string `json:"message"`
		ID      string `json:"id,omitempty"`
	}

	data := new(createProjectBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createProjectResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createProjectResponse{
			Message: "Invalid request body",
		})
	}

	if data.Status != "" && !model.ValidProjectStatus(data.Status) {
		return c.JSON(http.StatusBadRequest, createProjectResponse{
			Message: "Invalid project status",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	id, err := eng.CreateProject(c.Request().Context(), model.Project{
		Title:        data.Title,
		Description:  data.Description,
		Status:       data.Status,
		Timeline:     data.Timeline,
		Funding:      data.Funding,
		Participants: data.Participants,
	})
	if err != nil {
		logger.Error("Failed to create project", "err", err)
		return c.JSON(http.StatusInternalServerError, createProjectResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, createProjectResponse{
		Message: "Project created successfully",
		ID:      id,
	})
}
