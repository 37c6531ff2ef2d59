package scheduler_test

import (
	"errors"
	"testing"
	"time"

	gomock "go.uber.org/mock/gomock"

	"github.com/codevault/worker/internal/pipeline"
	. "github.com/codevault/worker/internal/scheduler"
	"github.com/codevault/worker/pkg/constants"
	pkgerrors "github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/messages"
	"github.com/codevault/worker/tests/mocks"
)

func TestNewScheduler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	maxWorkers := 3
	s := NewScheduler(
		maxWorkers,
		mocks.NewMockWrapper(ctrl),
		mocks.NewMockExecutor(ctrl),
		mocks.NewMockVerifier(ctrl),
		mocks.NewMockResponder(ctrl),
	)
	if s == nil {
		t.Fatalf("NewScheduler returned nil")
	}

	status := s.GetWorkersStatus()
	if status.TotalWorkers != maxWorkers || status.BusyWorkers != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.WorkerStatus) != maxWorkers {
		t.Fatalf("expected %d workers, got %d", maxWorkers, len(status.WorkerStatus))
	}
	for i, ws := range status.WorkerStatus {
		if ws.WorkerID != i || ws.Status != constants.WorkerStatusIdle {
			t.Fatalf("unexpected worker status %+v", ws)
		}
	}
}

func TestGetWorkersStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w0 := mocks.NewMockWorker(ctrl)
	w1 := mocks.NewMockWorker(ctrl)

	w0.EXPECT().GetStatus().Return(constants.WorkerStatusBusy).Times(1)
	w0.EXPECT().GetProcessingMessageID().Return("msg-1").Times(1)
	w1.EXPECT().GetStatus().Return(constants.WorkerStatusIdle).Times(1)

	s := NewSchedulerWithWorkers(2, map[int]pipeline.Worker{0: w0, 1: w1})

	st := s.GetWorkersStatus()
	if st.TotalWorkers != 2 {
		t.Fatalf("expected total_workers 2, got %v", st.TotalWorkers)
	}
	if st.WorkerStatus[0].ProcessingMessageID != "msg-1" || st.WorkerStatus[0].Status != constants.WorkerStatusBusy {
		t.Fatalf("unexpected status for worker 0: %+v", st.WorkerStatus[0])
	}
	if st.WorkerStatus[1].ProcessingMessageID != "" || st.WorkerStatus[1].Status != constants.WorkerStatusIdle {
		t.Fatalf("unexpected status for worker 1: %+v", st.WorkerStatus[1])
	}
}

func TestProcessTask_SuccessAndMarkIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := mocks.NewMockWorker(ctrl)
	message := messages.QueueMessage{Type: constants.QueueMessageTypeRunTests, MessageID: "msg-id-1"}

	w.EXPECT().GetStatus().Return(constants.WorkerStatusIdle).Times(1)
	w.EXPECT().UpdateStatus(constants.WorkerStatusBusy).Times(1)
	w.EXPECT().GetId().Return(0).AnyTimes()

	w.EXPECT().ProcessTask("resp", message).Do(func(_ string, _ messages.QueueMessage) {
		time.Sleep(5 * time.Millisecond)
	}).Times(1)

	idle := make(chan struct{})
	w.EXPECT().UpdateStatus(constants.WorkerStatusIdle).Do(func(_ constants.WorkerStatus) {
		close(idle)
	}).Times(1)

	s := NewSchedulerWithWorkers(1, map[int]pipeline.Worker{0: w})

	if err := s.ProcessTask("resp", message); err != nil {
		t.Fatalf("unexpected error from ProcessTask: %v", err)
	}

	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for worker to be marked idle")
	}
}

func TestProcessTask_WorkerPanicStillMarksIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := mocks.NewMockWorker(ctrl)
	w.EXPECT().GetStatus().Return(constants.WorkerStatusIdle).Times(1)
	w.EXPECT().UpdateStatus(constants.WorkerStatusBusy).Times(1)
	w.EXPECT().GetId().Return(0).AnyTimes()
	w.EXPECT().ProcessTask(gomock.Any(), gomock.Any()).Do(func(_ string, _ messages.QueueMessage) {
		panic("boom")
	})

	idle := make(chan struct{})
	w.EXPECT().UpdateStatus(constants.WorkerStatusIdle).Do(func(_ constants.WorkerStatus) {
		close(idle)
	})

	s := NewSchedulerWithWorkers(1, map[int]pipeline.Worker{0: w})
	if err := s.ProcessTask("resp", messages.QueueMessage{MessageID: "m"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-idle:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for worker to be marked idle")
	}
}

func TestProcessTask_NoFreeWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := mocks.NewMockWorker(ctrl)
	w.EXPECT().GetStatus().Return(constants.WorkerStatusBusy).Times(1)

	s := NewSchedulerWithWorkers(1, map[int]pipeline.Worker{0: w})

	err := s.ProcessTask("resp", messages.QueueMessage{MessageID: "msg-id-2"})
	if !errors.Is(err, pkgerrors.ErrFailedToGetFreeWorker) {
		t.Fatalf("expected ErrFailedToGetFreeWorker, got %v", err)
	}
}
