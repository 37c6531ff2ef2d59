package scheduler

import (
	"sort"
	"sync"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/metrics"
	"github.com/codevault/worker/internal/pipeline"
	"github.com/codevault/worker/internal/rabbitmq/responder"
	"github.com/codevault/worker/internal/stages/executor"
	"github.com/codevault/worker/internal/stages/verifier"
	"github.com/codevault/worker/internal/stages/wrapper"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/messages"
	"go.uber.org/zap"
)

type Scheduler interface {
	GetWorkersStatus() messages.ResponseWorkerStatusPayload
	// ProcessTask hands the message to an idle worker and returns without
	// waiting for it. ErrFailedToGetFreeWorker is returned when every worker
	// is busy.
	ProcessTask(responseQueue string, message messages.QueueMessage) error
}

type scheduler struct {
	mu               sync.Mutex
	busyWorkersCount int
	workers          map[int]pipeline.Worker
	maxWorkers       int
	logger           *zap.SugaredLogger
}

func NewScheduler(
	maxWorkers int,
	wrapper wrapper.Wrapper,
	executor executor.Executor,
	verifier verifier.Verifier,
	responder responder.Responder,
) Scheduler {
	workers := make(map[int]pipeline.Worker, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		workers[i] = pipeline.NewWorker(i, wrapper, executor, verifier, responder)
	}

	return NewSchedulerWithWorkers(maxWorkers, workers)
}

// NewSchedulerWithWorkers builds a scheduler over an existing worker set.
func NewSchedulerWithWorkers(maxWorkers int, workers map[int]pipeline.Worker) Scheduler {
	return &scheduler{
		workers:    workers,
		maxWorkers: maxWorkers,
		logger:     logger.NewNamedLogger("workerPool"),
	}
}

func (s *scheduler) GetWorkersStatus() messages.ResponseWorkerStatusPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	statuses := make([]messages.WorkerStatus, 0, len(ids))
	for _, id := range ids {
		worker := s.workers[id]
		status := messages.WorkerStatus{WorkerID: id, Status: worker.GetStatus()}
		if status.Status == constants.WorkerStatusBusy {
			status.ProcessingMessageID = worker.GetProcessingMessageID()
		}
		statuses = append(statuses, status)
	}

	return messages.ResponseWorkerStatusPayload{
		BusyWorkers:  s.busyWorkersCount,
		TotalWorkers: s.maxWorkers,
		WorkerStatus: statuses,
	}
}

func (s *scheduler) getFreeWorker() (pipeline.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, worker := range s.workers {
		if worker.GetStatus() == constants.WorkerStatusIdle {
			worker.UpdateStatus(constants.WorkerStatusBusy)
			s.busyWorkersCount++
			metrics.SetBusyWorkers(s.busyWorkersCount)
			return worker, nil
		}
	}

	return nil, errors.ErrFailedToGetFreeWorker
}

func (s *scheduler) ProcessTask(responseQueue string, message messages.QueueMessage) error {
	s.logger.Infof("Scheduling %s message [MsgID: %s]", message.Type, message.MessageID)

	worker, err := s.getFreeWorker()
	if err != nil {
		s.logger.Errorf("No available workers: %s", err)
		return err
	}

	go func(w pipeline.Worker) {
		defer s.markWorkerAsIdle(w)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Worker panicked: %v", r)
			}
		}()

		w.ProcessTask(responseQueue, message)
	}(worker)

	return nil
}

func (s *scheduler) markWorkerAsIdle(worker pipeline.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker.UpdateStatus(constants.WorkerStatusIdle)
	s.busyWorkersCount--
	metrics.SetBusyWorkers(s.busyWorkersCount)

	s.logger.Infof("Worker marked as idle [WorkerID: %d]", worker.GetId())
}
