package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/store"
)

// App bundles the shared clients handlers reach through the request context.
type App struct {
	Stores *store.Stores
	Engine *engine.Engine
	Queue  *amqp091.Channel
	APIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
