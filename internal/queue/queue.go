package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/atlas-collab/atlas/backend/internal/metrics"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/internal/util"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// MetricsQueue carries publication metrics events from the API to the
// analytics worker.
const MetricsQueue = "metrics_queue"

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares each queue together with its retry and dead-letter
// companions. Messages published to a retry queue flow back to the main
// queue after the TTL expires.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
		}
	}

	return nil
}

// PublishMetricsRow enqueues one publication metrics event.
func PublishMetricsRow(ch *amqp091.Channel, row store.PublicationMetricsRow) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode metrics row: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	err = ch.Publish(
		"",
		MetricsQueue,
		false,
		false,
		publishing,
	)
	if err != nil {
		metrics.AnalyticsEvents.WithLabelValues("publish_failed").Inc()
		return err
	}

	metrics.AnalyticsEvents.WithLabelValues("published").Inc()
	return nil
}

// ProcessMetricsMessage decodes one metrics event and writes it to the
// analytics store. A decode failure is permanent; the caller should not
// retry it.
func ProcessMetricsMessage(ctx context.Context, analytics store.AnalyticsStore, body []byte) error {
	var row store.PublicationMetricsRow
	if err := json.Unmarshal(body, &row); err != nil {
		metrics.AnalyticsEvents.WithLabelValues("undecodable").Inc()
		return fmt.Errorf("decode metrics row: %w", err)
	}
	if row.PublicationID == "" {
		metrics.AnalyticsEvents.WithLabelValues("undecodable").Inc()
		return fmt.Errorf("metrics row without publication id")
	}
	if row.MetricDate.IsZero() {
		row.MetricDate = time.Now().UTC()
	}

	if err := analytics.InsertPublicationMetrics(ctx, row); err != nil {
		metrics.AnalyticsEvents.WithLabelValues("failed").Inc()
		return err
	}
	metrics.AnalyticsEvents.WithLabelValues("ingested").Inc()
	return nil
}
