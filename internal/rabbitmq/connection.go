package rabbitmq

import (
	"time"

	"github.com/codevault/worker/internal/config"
	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/pkg/constants"
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewRabbitMqConnection dials the broker, retrying with a linear backoff while
// the broker is still starting up. It aborts the process when every attempt
// fails.
func NewRabbitMqConnection(cfg *config.Config) *amqp.Connection {
	logger := logger.NewNamedLogger("rabbitmq")

	var lastErr error
	for attempt := 1; attempt <= constants.RabbitMQReconnectTries; attempt++ {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err == nil {
			logger.Infof("Connected to RabbitMQ on attempt %d", attempt)
			return conn
		}

		lastErr = err
		logger.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %s",
			attempt, constants.RabbitMQReconnectTries, err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}

	logger.Fatalf("Failed to connect to RabbitMQ: %s", lastErr)
	return nil
}

func NewRabbitMQChannel(conn *amqp.Connection) *amqp.Channel {
	logger := logger.NewNamedLogger("rabbitmq")

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("Failed to open a channel: %s", err)
	}

	return ch
}
