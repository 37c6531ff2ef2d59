package responder_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/mock/gomock"

	. "github.com/codevault/worker/internal/rabbitmq/responder"
	"github.com/codevault/worker/pkg/constants"
	pkgerrors "github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/messages"
	"github.com/codevault/worker/pkg/solution"
	"github.com/codevault/worker/tests/mocks"
)

func decodeResponse(t *testing.T, pub amqp.Publishing) messages.ResponseQueueMessage {
	t.Helper()
	var resp messages.ResponseQueueMessage
	if err := json.Unmarshal(pub.Body, &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestPublishErrorToResponseQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCh := mocks.NewMockChannel(ctrl)
	r := NewResponder(mockCh, 10)
	defer func() {
		if err := r.Close(); err != nil {
			t.Fatalf("failed to close responder: %v", err)
		}
	}()

	testErr := errors.New("some error")

	mockCh.EXPECT().Publish("", "resp-queue", false, false, gomock.AssignableToTypeOf(amqp.Publishing{})).Do(
		func(_ string, _ string, _ bool, _ bool, pub amqp.Publishing) {
			if pub.CorrelationId != "mid-1" {
				t.Fatalf("expected correlation id mid-1, got %s", pub.CorrelationId)
			}
			resp := decodeResponse(t, pub)
			if resp.Type != "err-type" || resp.MessageID != "mid-1" {
				t.Fatalf("unexpected envelope %+v", resp)
			}
			if resp.Ok {
				t.Fatalf("expected Ok=false for error response")
			}
			var payload messages.ErrorPayload
			if err := json.Unmarshal(resp.Payload, &payload); err != nil {
				t.Fatalf("failed to unmarshal payload: %v", err)
			}
			if payload.Error != testErr.Error() {
				t.Fatalf("expected payload error %s got %s", testErr.Error(), payload.Error)
			}
		}).Return(nil).Times(1)

	r.PublishErrorToResponseQueue("err-type", "mid-1", "resp-queue", testErr)
}

func TestPublishRespondHelpers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCh := mocks.NewMockChannel(ctrl)
	r := NewResponder(mockCh, 10)
	defer func() {
		if err := r.Close(); err != nil {
			t.Fatalf("failed to close responder: %v", err)
		}
	}()

	statusPayload := messages.ResponseWorkerStatusPayload{
		BusyWorkers:  1,
		TotalWorkers: 2,
		WorkerStatus: []messages.WorkerStatus{
			{WorkerID: 0, Status: constants.WorkerStatusBusy, ProcessingMessageID: "m-0"},
			{WorkerID: 1, Status: constants.WorkerStatusIdle},
		},
	}
	mockCh.EXPECT().Publish("", "status-queue", false, false, gomock.AssignableToTypeOf(amqp.Publishing{})).Do(
		func(_ string, _ string, _ bool, _ bool, pub amqp.Publishing) {
			resp := decodeResponse(t, pub)
			if !resp.Ok {
				t.Fatalf("expected Ok=true for status response")
			}
			var got messages.ResponseWorkerStatusPayload
			if err := json.Unmarshal(resp.Payload, &got); err != nil {
				t.Fatalf("failed to unmarshal payload: %v", err)
			}
			if got.WorkerStatus[0].Status != constants.WorkerStatusBusy || got.WorkerStatus[1].Status != constants.WorkerStatusIdle {
				t.Fatalf("unexpected worker statuses %+v", got.WorkerStatus)
			}
		}).Return(nil).Times(1)

	if err := r.PublishSuccessStatusRespond("status", "sid", "status-queue", statusPayload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mockCh.EXPECT().Publish("", "hs-queue", false, false, gomock.AssignableToTypeOf(amqp.Publishing{})).Do(
		func(_ string, _ string, _ bool, _ bool, pub amqp.Publishing) {
			var got messages.ResponseHandshakePayload
			if err := json.Unmarshal(decodeResponse(t, pub).Payload, &got); err != nil {
				t.Fatalf("failed to unmarshal handshake payload: %v", err)
			}
			if len(got.Languages) != len(languages.LanguageTypeMap) {
				t.Fatalf("expected %d languages, got %d", len(languages.LanguageTypeMap), len(got.Languages))
			}
		}).Return(nil).Times(1)

	if err := r.PublishSuccessHandshakeRespond("handshake", "hid", "hs-queue",
		languages.GetSupportedLanguagesWithBackends()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	verdict := solution.Result{AllPassed: true, PassedCount: 1, TotalCount: 1}
	mockCh.EXPECT().Publish("", "task-queue", false, false, gomock.AssignableToTypeOf(amqp.Publishing{})).Do(
		func(_ string, _ string, _ bool, _ bool, pub amqp.Publishing) {
			var got solution.Result
			if err := json.Unmarshal(decodeResponse(t, pub).Payload, &got); err != nil {
				t.Fatalf("failed to unmarshal task payload: %v", err)
			}
			if !got.AllPassed || got.TotalCount != 1 {
				t.Fatalf("unexpected verdict %+v", got)
			}
		}).Return(nil).Times(1)

	if err := r.PublishPayloadRespond(constants.QueueMessageTypeRunTests, "tid", "task-queue", verdict); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPublishPayloadRespond_NoReplyQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCh := mocks.NewMockChannel(ctrl)
	r := NewResponder(mockCh, 10)
	defer func() {
		if err := r.Close(); err != nil {
			t.Fatalf("failed to close responder: %v", err)
		}
	}()

	mockCh.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	if err := r.PublishPayloadRespond(constants.QueueMessageTypeWrap, "id", "", struct{}{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestPublish_ConcurrentHighLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCh := mocks.NewMockChannel(ctrl)
	r := NewResponder(mockCh, 1000)
	defer func() {
		if err := r.Close(); err != nil {
			t.Fatalf("failed to close responder: %v", err)
		}
	}()

	const n = 200

	var mu sync.Mutex
	received := make(map[string]struct{})
	mockCh.EXPECT().Publish("", "q-heavy", false, false, gomock.AssignableToTypeOf(amqp.Publishing{})).Do(
		func(_ string, _ string, _ bool, _ bool, pub amqp.Publishing) {
			mu.Lock()
			received[string(pub.Body)] = struct{}{}
			mu.Unlock()
			time.Sleep(time.Millisecond)
		}).Return(nil).Times(n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			body := []byte(fmt.Sprintf("msg-%d", i))
			if err := r.Publish("q-heavy", amqp.Publishing{ContentType: "text/plain", Body: body}); err != nil {
				t.Errorf("Publish returned error: %v", err)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatalf("timed out waiting for concurrent publishes to finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != n {
		t.Fatalf("expected %d published messages, got %d", n, len(received))
	}
}

func TestPublish_ReturnsChannelError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCh := mocks.NewMockChannel(ctrl)
	r := NewResponder(mockCh, 10)
	defer func() {
		if err := r.Close(); err != nil {
			t.Fatalf("failed to close responder: %v", err)
		}
	}()

	expectedErr := errors.New("publish failed")
	mockCh.EXPECT().Publish(
		"", "err-q", false, false, gomock.AssignableToTypeOf(amqp.Publishing{}),
	).Return(expectedErr).Times(1)

	err := r.Publish("err-q", amqp.Publishing{Body: []byte("x")})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v got %v", expectedErr, err)
	}
}

func TestClose_PreventsPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCh := mocks.NewMockChannel(ctrl)
	r := NewResponder(mockCh, 10)

	if err := r.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}

	err := r.Publish("any", amqp.Publishing{Body: []byte("x")})
	if !errors.Is(err, pkgerrors.ErrResponderClosed) {
		t.Fatalf("expected ErrResponderClosed got %v", err)
	}
}
