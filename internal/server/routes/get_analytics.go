package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// GetDepartmentAnalyticsHandler builds the live department report. The
// historical time series is appended when the analytics store is up.
func GetDepartmentAnalyticsHandler(c echo.Context) error {
	type getAnalyticsQuery struct {
		Days int `query:"days"`
	}

	type getAnalyticsResponse struct {
		Message string                   `json:"message"`
		Report  *engine.DepartmentReport `json:"report,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getAnalyticsResponse{
			Message: "Invalid request params",
		})
	}

	query := new(getAnalyticsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, getAnalyticsResponse{
			Message: "Invalid query params",
		})
	}
	if query.Days <= 0 {
		query.Days = 30
	}

	eng := c.(*middleware.AppContext).App.Engine
	report, err := eng.DepartmentAnalytics(c.Request().Context(), id, query.Days)
	if err != nil {
		logger.Error("Failed to build department analytics", "department", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getAnalyticsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getAnalyticsResponse{
		Message: "Analytics assembled",
		Report:  &report,
	})
}

func GetStatisticsHandler(c echo.Context) error {
	type getStatisticsResponse struct {
		Message    string                   `json:"message"`
		Statistics *engine.SystemStatistics `json:"statistics,omitempty"`
	}

	eng := c.(*middleware.AppContext).App.Engine
	stats, err := eng.Statistics(c.Request().Context())
	if err != nil {
		logger.Error("Failed to collect statistics", "err", err)
		return c.JSON(http.StatusInternalServerError, getStatisticsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getStatisticsResponse{
		Message:    "Statistics collected",
		Statistics: &stats,
	})
}
