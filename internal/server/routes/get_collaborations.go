package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// GetCollaborationPairsHandler lists co-authorship pairs among known
// researchers, strongest first.
func GetCollaborationPairsHandler(c echo.Context) error {
	type getPairsQuery struct {
		Department  string `query:"department"`
		MinStrength int64  `query:"min_strength"`
		Limit       int    `query:"limit"`
	}

	type getPairsResponse struct {
		Message string             `json:"message"`
		Count   int                `json:"count"`
		Pairs   []engine.NamedPair `json:"pairs"`
	}

	query := new(getPairsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, getPairsResponse{
			Message: "Invalid query params",
		})
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	eng := c.(*middleware.AppContext).App.Engine
	pairs, err := eng.CollaborationPairs(c.Request().Context(), query.Department, query.MinStrength, query.Limit)
	if err != nil {
		logger.Error("Failed to list collaboration pairs", "err", err)
		return c.JSON(http.StatusInternalServerError, getPairsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getPairsResponse{
		Message: "Pairs found",
		Count:   len(pairs),
		Pairs:   pairs,
	})
}
