package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/rabbitmq/responder"
	"github.com/codevault/worker/internal/stages/executor"
	"github.com/codevault/worker/internal/stages/verifier"
	"github.com/codevault/worker/internal/stages/wrapper"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/messages"
	"go.uber.org/zap"
)

type Worker interface {
	ProcessTask(responseQueue string, message messages.QueueMessage)
	GetStatus() constants.WorkerStatus
	UpdateStatus(status constants.WorkerStatus)
	GetProcessingMessageID() string
	GetId() int
}

type WorkerState struct {
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

type worker struct {
	id        int
	mu        sync.RWMutex
	state     WorkerState
	wrapper   wrapper.Wrapper
	executor  executor.Executor
	verifier  verifier.Verifier
	responder responder.Responder
	logger    *zap.SugaredLogger
}

func NewWorker(
	id int,
	wrapper wrapper.Wrapper,
	executor executor.Executor,
	verifier verifier.Verifier,
	responder responder.Responder,
) Worker {
	logger := logger.NewNamedLogger(fmt.Sprintf("worker-%d", id))

	return &worker{
		id:        id,
		state:     WorkerState{Status: constants.WorkerStatusIdle, ProcessingMessageID: ""},
		wrapper:   wrapper,
		executor:  executor,
		verifier:  verifier,
		responder: responder,
		logger:    logger,
	}
}

func (ws *worker) GetId() int {
	return ws.id
}

func (ws *worker) GetStatus() constants.WorkerStatus {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state.Status
}

func (ws *worker) UpdateStatus(status constants.WorkerStatus) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state.Status = status
}

func (ws *worker) GetProcessingMessageID() string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state.ProcessingMessageID
}

func (ws *worker) setProcessingMessageID(messageID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state.ProcessingMessageID = messageID
}

func (ws *worker) ProcessTask(responseQueue string, message messages.QueueMessage) {
	defer func() {
		if r := recover(); r != nil {
			ws.logger.Errorf("Recovered from panic [MsgID: %s]: %v", message.MessageID, r)
			ws.responder.PublishErrorToResponseQueue(
				message.Type,
				message.MessageID,
				responseQueue,
				fmt.Errorf("%w: %v", errors.ErrWorkerPanicked, r),
			)
		}
	}()

	ws.logger.Infof("Processing %s message [MsgID: %s]", message.Type, message.MessageID)
	ws.setProcessingMessageID(message.MessageID)
	defer ws.setProcessingMessageID("")

	ctx := context.Background()

	var (
		payload any
		err     error
	)
	switch message.Type {
	case constants.QueueMessageTypeWrap:
		payload, err = ws.handleWrap(message.Payload)
	case constants.QueueMessageTypeExecute:
		payload, err = ws.handleExecute(ctx, message.Payload)
	case constants.QueueMessageTypeRunTests:
		payload, err = ws.handleRunTests(ctx, message.Payload)
	default:
		err = errors.ErrUnknownMessageType
	}

	if err != nil {
		ws.logger.Errorf("Failed to process message [MsgID: %s]: %s", message.MessageID, err)
		ws.responder.PublishErrorToResponseQueue(message.Type, message.MessageID, responseQueue, err)
		return
	}

	if err := ws.responder.PublishPayloadRespond(message.Type, message.MessageID, responseQueue, payload); err != nil {
		ws.logger.Errorf("Failed to publish response [MsgID: %s]: %s", message.MessageID, err)
		return
	}
	ws.logger.Infof("Finished processing message [MsgID: %s]", message.MessageID)
}

func (ws *worker) handleWrap(raw json.RawMessage) (messages.WrapResponse, error) {
	var req messages.WrapRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return messages.WrapResponse{}, err
	}

	langType, err := languages.ParseLanguageType(req.Language)
	if err != nil {
		return messages.WrapResponse{}, fmt.Errorf("%w: %q", err, req.Language)
	}

	result := ws.wrapper.Wrap(langType, req.Code)
	return messages.WrapResponse{
		Language: langType.String(),
		Shape:    result.Shape.String(),
		Source:   result.Source,
	}, nil
}

func (ws *worker) handleExecute(ctx context.Context, raw json.RawMessage) (any, error) {
	var req messages.ExecuteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}

	langType, err := languages.ParseLanguageType(req.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.Language)
	}

	code := req.Code
	if langType.RequiresWrapping() && strings.TrimSpace(code) != "" {
		code = ws.wrapper.Wrap(langType, code).Source
	}

	return ws.executor.Execute(ctx, langType, code, req.Input), nil
}

func (ws *worker) handleRunTests(ctx context.Context, raw json.RawMessage) (any, error) {
	var req messages.RunTestsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}

	langType, err := languages.ParseLanguageType(req.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.Language)
	}

	return ws.verifier.RunSuite(ctx, langType, req.Code, req.TestCases), nil
}
