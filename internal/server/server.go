package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	echomid "github.com/labstack/echo/v4/middleware"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/queue"
	mid "github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/internal/util"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// StoreConfigFromEnv builds the store connection settings from environment
// variables.
func StoreConfigFromEnv() store.Config {
	return store.Config{
		MongoURI:      util.GetEnvString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: util.GetEnvString("MONGO_DATABASE", "research_collab"),

		Neo4jURI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     util.GetEnvString("NEO4J_USER", "neo4j"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),

		RedisURL: util.GetEnvString("REDIS_URL", "redis://localhost:6379/0"),

		CassandraHosts:    strings.Split(util.GetEnvString("CASSANDRA_HOSTS", "localhost"), ","),
		CassandraPort:     util.GetEnvInt("CASSANDRA_PORT", 9042),
		CassandraKeyspace: util.GetEnvString("CASSANDRA_KEYSPACE", "research_analytics"),
	}
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := store.Connect(ctx, StoreConfigFromEnv())
	if err != nil {
		logger.Fatal("Failed to connect stores", "err", err)
	}
	defer stores.Close(context.Background())

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, []string{queue.MetricsQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	eng := engine.New(stores).WithMetricsPublisher(
		func(_ context.Context, row store.PublicationMetricsRow) error {
			return queue.PublishMetricsRow(ch, row)
		})

	app := &mid.App{
		Stores: stores,
		Engine: eng,
		Queue:  ch,
		APIKey: util.GetEnv("API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomid.CORS())
	e.Use(echomid.RequestLogger())
	e.Use(echomid.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
