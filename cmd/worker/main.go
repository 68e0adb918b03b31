package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/queue"
	"github.com/atlas-collab/atlas/backend/internal/server"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/internal/util"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
	"github.com/atlas-collab/atlas/backend/pkg/logger/console"
)

const maxRetries = 10

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	stores, err := store.Connect(ctx, server.StoreConfigFromEnv())
	if err != nil {
		logger.Fatal("Failed to connect stores", "err", err)
	}
	defer stores.Close(context.Background())

	eng := engine.New(stores)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.MetricsQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.MetricsQueue,
		queue.MetricsQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.MetricsQueue, "err", err)
	}

	logger.Info("Listening for metrics events")

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed")
					return
				}
				start := time.Now()
				if err := queue.ProcessMetricsMessage(ctx, stores.Analytics, msg.Body); err != nil {
					logger.Error("Error processing metrics event", "err", err)
					handleProcessingError(consumerCh, msg)
					continue
				}
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Debug("Metrics event ingested", "duration", time.Since(start))
			}
		}
	}()

	// Nightly department rollups.
	rollupSpec := util.GetEnvString("ROLLUP_CRON", "0 2 * * *")
	scheduler := cron.New()
	_, err = scheduler.AddFunc(rollupSpec, func() {
		runDepartmentRollups(ctx, eng, stores)
	})
	if err != nil {
		logger.Fatal("Invalid rollup schedule", "spec", rollupSpec, "err", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("Rollup scheduler started", "spec", rollupSpec)

	if util.GetEnvBool("ROLLUP_ON_START", false) {
		runDepartmentRollups(ctx, eng, stores)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

// runDepartmentRollups computes and stores one analytics row per
// department. Individual department failures are logged and skipped so a
// bad department cannot stall the run.
func runDepartmentRollups(ctx context.Context, eng *engine.Engine, stores *store.Stores) {
	if !stores.Analytics.Available() {
		logger.Warn("Analytics store unavailable, skipping rollups")
		return
	}

	departments, err := eng.ListDepartments(ctx)
	if err != nil {
		logger.Error("Failed to list departments", "err", err)
		return
	}
	logger.Info("Running department rollups", "departments", len(departments))

	for _, department := range departments {
		row, err := eng.ComputeDepartmentRollup(ctx, department)
		if err != nil {
			logger.Error("Failed to compute rollup", "department", department, "err", err)
			continue
		}
		if err := stores.Analytics.InsertDepartmentRollup(ctx, row); err != nil {
			logger.Error("Failed to store rollup", "department", department, "err", err)
			continue
		}
		logger.Info("Stored department rollup", "department", department)
	}
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// Exhausted messages go to the dead-letter queue.
	if retries >= maxRetries {
		dlqName := queue.MetricsQueue + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queue.MetricsQueue + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
