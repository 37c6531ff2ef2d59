package responder

import (
	"encoding/json"
	"sync"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/rabbitmq/channel"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/messages"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Responder interface {
	PublishErrorToResponseQueue(
		messageType, messageID, responseQueue string,
		err error,
	)
	PublishSuccessHandshakeRespond(
		messageType, messageID, responseQueue string,
		payload messages.ResponseHandshakePayload,
	) error
	PublishSuccessStatusRespond(
		messageType, messageID, responseQueue string,
		payload messages.ResponseWorkerStatusPayload,
	) error
	// PublishPayloadRespond publishes any JSON serializable result as a
	// successful response.
	PublishPayloadRespond(
		messageType, messageID, responseQueue string,
		payload any,
	) error
	Publish(queueName string, msg amqp.Publishing) error
	Close() error
}

type publishRequest struct {
	queueName string
	msg       amqp.Publishing
	result    chan error
}

// responder funnels every publish through a single goroutine so that workers
// never share the channel concurrently.
type responder struct {
	logger      *zap.SugaredLogger
	channel     channel.Channel
	publishChan chan publishRequest
	done        chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewResponder(channel channel.Channel, publishChanSize int) Responder {
	if publishChanSize < 1 {
		publishChanSize = constants.DefaultRabbitmqPublishChanSize
	}

	r := &responder{
		logger:      logger.NewNamedLogger("responder"),
		channel:     channel,
		publishChan: make(chan publishRequest, publishChanSize),
		done:        make(chan struct{}),
	}
	go r.publishLoop()

	return r
}

func (r *responder) publishLoop() {
	defer close(r.done)
	for req := range r.publishChan {
		req.result <- r.channel.Publish("", req.queueName, false, false, req.msg)
	}
}

func (r *responder) Publish(queueName string, msg amqp.Publishing) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return errors.ErrResponderClosed
	}
	result := make(chan error, 1)
	r.publishChan <- publishRequest{queueName: queueName, msg: msg, result: result}
	r.mu.RUnlock()

	return <-result
}

// Close stops accepting publishes and waits for queued ones to drain.
func (r *responder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.publishChan)
	r.mu.Unlock()

	<-r.done
	r.logger.Info("Responder closed")
	return nil
}

func (r *responder) PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error) {
	payload, jsonErr := json.Marshal(messages.ErrorPayload{Error: err.Error()})
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal error payload: %s", jsonErr)
		return
	}

	if pubErr := r.publishResponse(messageType, messageID, responseQueue, false, payload); pubErr != nil {
		r.logger.Errorf("Failed to publish error message [MsgID: %s]: %s", messageID, pubErr)
		return
	}

	r.logger.Infof("Published error message to response queue [MsgID: %s]", messageID)
}

func (r *responder) PublishSuccessHandshakeRespond(
	messageType, messageID, responseQueue string,
	payload messages.ResponseHandshakePayload,
) error {
	return r.PublishPayloadRespond(messageType, messageID, responseQueue, payload)
}

func (r *responder) PublishSuccessStatusRespond(
	messageType, messageID, responseQueue string,
	payload messages.ResponseWorkerStatusPayload,
) error {
	return r.PublishPayloadRespond(messageType, messageID, responseQueue, payload)
}

func (r *responder) PublishPayloadRespond(messageType, messageID, responseQueue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return r.publishResponse(messageType, messageID, responseQueue, true, body)
}

func (r *responder) publishResponse(messageType, messageID, responseQueue string, ok bool, payload []byte) error {
	if responseQueue == "" {
		r.logger.Warnf("Dropping %s response without reply queue [MsgID: %s]", messageType, messageID)
		return nil
	}

	responseJSON, err := json.Marshal(messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        ok,
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	r.logger.Infof("Publishing %s response to queue %s [MsgID: %s]", messageType, responseQueue, messageID)
	return r.Publish(responseQueue, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	})
}
