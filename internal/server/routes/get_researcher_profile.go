package routes

import (
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// GetResearcherProfileHandler returns the aggregated profile. Basic info
// is served cache-aside; the remaining sections are always fresh.
func GetResearcherProfileHandler(c echo.Context) error {
	type getProfileResponse struct {
		Message string                 `json:"message"`
		Profile *engine.Profile        `json:"profile,omitempty"`
		Summary *engine.ProfileSummary `json:"summary,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getProfileResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	profile, summary, err := eng.ResearcherProfile(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getProfileResponse{
				Message: "Researcher not found",
			})
		}
		logger.Error("Failed to build researcher profile", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getProfileResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getProfileResponse{
		Message: "Profile assembled",
		Profile: &profile,
		Summary: &summary,
	})
}

// GetResearcherStatsHandler serves the fast-access counters hash without
// assembling the full profile.
func GetResearcherStatsHandler(c echo.Context) error {
	type getStatsResponse struct {
		Message string             `json:"message"`
		Stats   *engine.QuickStats `json:"stats,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getStatsResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	stats, err := eng.ResearcherQuickStats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getStatsResponse{
				Message: "Researcher not found",
			})
		}
		logger.Error("Failed to read researcher stats", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getStatsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getStatsResponse{
		Message: "Stats found",
		Stats:   &stats,
	})
}

func GetResearcherRelationshipsHandler(c echo.Context) error {
	type getRelationshipsResponse struct {
		Message       string                     `json:"message"`
		Relationships *engine.RelationshipGroups `json:"relationships,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getRelationshipsResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	groups, err := eng.ResearcherRelationships(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to list relationships", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getRelationshipsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRelationshipsResponse{
		Message:       "Relationships found",
		Relationships: &groups,
	})
}

// GetSupervisionChainHandler walks the supervision hierarchy. Direction
// "up" lists supervisors transitively; anything else walks down.
func GetSupervisionChainHandler(c echo.Context) error {
	type getChainQuery struct {
		Direction string `query:"direction"`
	}

	type getChainResponse struct {
		Message   string           `json:"message"`
		Direction string           `json:"direction"`
		Chain     []store.Neighbor `json:"chain"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getChainResponse{
			Message: "Invalid request params",
		})
	}

	query := new(getChainQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, getChainResponse{
			Message: "Invalid query params",
		})
	}
	direction := query.Direction
	if direction != "up" {
		direction = "down"
	}

	eng := c.(*middleware.AppContext).App.Engine
	chain, err := eng.SupervisionChain(c.Request().Context(), id, direction)
	if err != nil {
		logger.Error("Failed to walk supervision chain", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getChainResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getChainResponse{
		Message:   "Chain resolved",
		Direction: direction,
		Chain:     chain,
	})
}
