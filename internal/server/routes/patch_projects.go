package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func EditProjectHandler(c echo.Context) error {
	type editProjectResponse struct {
		Message string `json:"message"`
		Updated bool   `json:"updated"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, editProjectResponse{
			Message: "Invalid request params",
		})
	}

	fields := map[string]any{}
	if err := c.Bind(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, editProjectResponse{
			Message: "Invalid request body",
		})
	}
	delete(fields, "_id")
	delete(fields, "metadata")
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, editProjectResponse{
			Message: "No fields to update",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	updated, err := eng.UpdateProject(c.Request().Context(), id, fields)
	if err != nil {
		logger.Error("Failed to update project", "id", id, "err", err)
		return c.JSON(http.StatusBadRequest, editProjectResponse{
			Message: "Invalid request body",
		})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, editProjectResponse{
			Message: "Project not found",
		})
	}

	return c.JSON(http.StatusOK, editProjectResponse{
		Message: "Project updated successfully",
		Updated: true,
	})
}
