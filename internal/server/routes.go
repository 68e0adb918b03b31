package server

import (
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/metrics"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Researcher routes
	apiRoutes.POST("/researchers", routes.CreateResearcherHandler)
	apiRoutes.GET("/researchers", routes.SearchResearchersHandler)
	apiRoutes.GET("/researchers/search", routes.SearchResearchersHandler)
	apiRoutes.GET("/researchers/:id", routes.GetResearcherHandler)
	apiRoutes.PATCH("/researchers/:id", routes.EditResearcherHandler)
	apiRoutes.DELETE("/researchers/:id", routes.DeleteResearcherHandler)
	apiRoutes.GET("/researchers/:id/profile", routes.GetResearcherProfileHandler)
	apiRoutes.GET("/researchers/:id/stats", routes.GetResearcherStatsHandler)
	apiRoutes.GET("/researchers/:id/relationships", routes.GetResearcherRelationshipsHandler)
	apiRoutes.GET("/researchers/:id/supervision-chain", routes.GetSupervisionChainHandler)

	// Project routes
	apiRoutes.POST("/projects", routes.CreateProjectHandler)
	apiRoutes.GET("/projects", routes.GetProjectsHandler)
	apiRoutes.GET("/projects/:id", routes.GetProjectHandler)
	apiRoutes.PATCH("/projects/:id", routes.EditProjectHandler)
	apiRoutes.DELETE("/projects/:id", routes.DeleteProjectHandler)

	// Publication routes
	apiRoutes.POST("/publications", routes.CreatePublicationHandler)
	apiRoutes.GET("/publications", routes.SearchPublicationsHandler)
	apiRoutes.GET("/publications/:id", routes.GetPublicationHandler)
	apiRoutes.PATCH("/publications/:id", routes.EditPublicationHandler)
	apiRoutes.DELETE("/publications/:id", routes.DeletePublicationHandler)

	// Collaboration routes
	apiRoutes.POST("/collaborations", routes.CreateCollaborationHandler)
	apiRoutes.DELETE("/collaborations", routes.DeleteCollaborationHandler)
	apiRoutes.GET("/collaborations/pairs", routes.GetCollaborationPairsHandler)

	// Analytics routes
	apiRoutes.GET("/analytics/departments/:id", routes.GetDepartmentAnalyticsHandler)
	apiRoutes.GET("/statistics", routes.GetStatisticsHandler)
}
