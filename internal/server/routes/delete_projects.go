package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func DeleteProjectHandler(c echo.Context) error {
	type deleteProjectResponse struct {
		Message string `json:"message"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, deleteProjectResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	deleted, err := eng.DeleteProject(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to delete project", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteProjectResponse{
			Message: "Internal server error",
		})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, deleteProjectResponse{
			Message: "Project not found",
		})
	}

	return c.JSON(http.StatusOK, deleteProjectResponse{
		Message: "Project deleted successfully",
	})
}
