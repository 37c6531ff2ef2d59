package consumer

import (
	"encoding/json"
	e "errors"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/metrics"
	"github.com/codevault/worker/internal/rabbitmq/channel"
	"github.com/codevault/worker/internal/rabbitmq/responder"
	"github.com/codevault/worker/internal/scheduler"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/messages"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Consumer interface {
	Listen()
}

type consumer struct {
	channel         channel.Channel
	workerQueueName string
	scheduler       scheduler.Scheduler
	responder       responder.Responder
	logger          *zap.SugaredLogger
}

func NewConsumer(
	mainChannel channel.Channel,
	workerQueueName string,
	scheduler scheduler.Scheduler,
	responder responder.Responder,
) Consumer {
	return &consumer{
		channel:         mainChannel,
		workerQueueName: workerQueueName,
		scheduler:       scheduler,
		responder:       responder,
		logger:          logger.NewNamedLogger("consumer"),
	}
}

// Listen declares the worker queue and dispatches deliveries until the
// channel is closed.
func (c *consumer) Listen() {
	c.logger.Infof("Declaring queue %s", c.workerQueueName)

	args := make(amqp.Table)
	args["x-max-priority"] = constants.RabbitMQMaxPriority
	_, err := c.channel.QueueDeclare(c.workerQueueName, true, false, false, false, args)
	if err != nil {
		c.logger.Panicf("Failed to declare queue %s: %s", c.workerQueueName, err)
	}

	c.logger.Infof("Listening for messages on queue %s", c.workerQueueName)

	msgs, err := c.channel.Consume(c.workerQueueName, "", true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to consume messages from queue %s: %s", c.workerQueueName, err)
	}

	for msg := range msgs {
		c.processMessage(msg)
	}

	c.logger.Info("Delivery channel closed, stopping consumer")
}

func (c *consumer) processMessage(msg amqp.Delivery) {
	var queueMessage messages.QueueMessage
	if err := json.Unmarshal(msg.Body, &queueMessage); err != nil {
		c.logger.Errorf("Failed to unmarshal message: %s", err)
		c.responder.PublishErrorToResponseQueue("", "", msg.ReplyTo, err)
		return
	}

	if queueMessage.MessageID == "" {
		queueMessage.MessageID = uuid.NewString()
		c.logger.Infof("Assigned message id %s to %s message", queueMessage.MessageID, queueMessage.Type)
	}

	switch queueMessage.Type {
	case constants.QueueMessageTypeWrap,
		constants.QueueMessageTypeExecute,
		constants.QueueMessageTypeRunTests:
		metrics.ObserveMessage(queueMessage.Type)
		c.logger.Infof("Received %s message [MsgID: %s]", queueMessage.Type, queueMessage.MessageID)
		c.handleTaskMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeStatus:
		metrics.ObserveMessage(queueMessage.Type)
		c.handleStatusMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeHandshake:
		metrics.ObserveMessage(queueMessage.Type)
		c.handleHandshakeMessage(queueMessage, msg.ReplyTo)
	default:
		metrics.ObserveMessage("unknown")
		c.logger.Errorf("Unknown message type: %s", queueMessage.Type)
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			msg.ReplyTo,
			errors.ErrUnknownMessageType)
	}
}

func (c *consumer) handleTaskMessage(queueMessage messages.QueueMessage, replyTo string) {
	err := c.scheduler.ProcessTask(replyTo, queueMessage)
	if err == nil {
		return
	}

	if e.Is(err, errors.ErrFailedToGetFreeWorker) {
		if requeueErr := c.requeueWithPriority(queueMessage, replyTo); requeueErr != nil {
			c.logger.Errorf("Failed to requeue message [MsgID: %s]: %s", queueMessage.MessageID, requeueErr)
			c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, requeueErr)
		}
		return
	}

	c.logger.Errorf("Failed to process message [MsgID: %s]: %s", queueMessage.MessageID, err)
	c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
}

// requeueWithPriority puts a message back ahead of fresh ones so it is picked
// up as soon as a worker frees up.
func (c *consumer) requeueWithPriority(queueMessage messages.QueueMessage, replyTo string) error {
	body, err := json.Marshal(queueMessage)
	if err != nil {
		return err
	}

	c.logger.Infof("All workers busy, requeueing message [MsgID: %s]", queueMessage.MessageID)
	return c.channel.Publish("", c.workerQueueName, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: queueMessage.MessageID,
		ReplyTo:       replyTo,
		Body:          body,
		Priority:      constants.RabbitMQRequeuePriority,
	})
}

func (c *consumer) handleStatusMessage(queueMessage messages.QueueMessage, replyTo string) {
	status := c.scheduler.GetWorkersStatus()

	err := c.responder.PublishSuccessStatusRespond(queueMessage.Type, queueMessage.MessageID, replyTo, status)
	if err != nil {
		c.logger.Errorf("Failed to publish status message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
}

func (c *consumer) handleHandshakeMessage(queueMessage messages.QueueMessage, replyTo string) {
	payload := languages.GetSupportedLanguagesWithBackends()

	err := c.responder.PublishSuccessHandshakeRespond(queueMessage.Type, queueMessage.MessageID, replyTo, payload)
	if err != nil {
		c.logger.Errorf("Failed to publish supported languages: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
}
