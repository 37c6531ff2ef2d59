package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/codevault/worker/internal/config"
	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/metrics"
	"github.com/codevault/worker/internal/rabbitmq"
	"github.com/codevault/worker/internal/rabbitmq/channel"
	"github.com/codevault/worker/internal/rabbitmq/consumer"
	"github.com/codevault/worker/internal/rabbitmq/responder"
	"github.com/codevault/worker/internal/scheduler"
	"github.com/codevault/worker/internal/stages/executor"
	"github.com/codevault/worker/internal/stages/harness"
	"github.com/codevault/worker/internal/stages/verifier"
	"github.com/codevault/worker/internal/stages/wrapper"
	"github.com/codevault/worker/pkg/constants"
)

func main() {
	logger.InitializeLogger()
	defer logger.Sync()

	logger := logger.NewNamedLogger("main")
	logger.Info("Starting worker")

	cfg := config.NewConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go metrics.Serve(ctx, cfg.MetricsAddr)

	exec, err := executor.NewExecutor(executorConfig(cfg.Execution))
	if err != nil {
		logger.Fatalf("Failed to initialize executor: %s", err)
	}

	conn := rabbitmq.NewRabbitMqConnection(cfg)
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %s", err)
		}
	}()

	workerChannel := channel.NewAmqpChannel(rabbitmq.NewRabbitMQChannel(conn))

	resp := responder.NewResponder(workerChannel, cfg.PublishChanSize)
	defer func() {
		if err := resp.Close(); err != nil {
			logger.Errorf("Failed to close responder: %s", err)
		}
	}()

	sched := scheduler.NewScheduler(
		cfg.MaxWorkers,
		wrapper.NewWrapper(),
		exec,
		verifier.NewVerifier(exec, harness.NewHarness()),
		resp,
	)
	cons := consumer.NewConsumer(workerChannel, cfg.ConsumeQueueName, sched, resp)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down worker")
		if err := workerChannel.Close(); err != nil {
			logger.Errorf("Failed to close channel: %s", err)
		}
	}()

	logger.Info("Listening for messages")
	cons.Listen()
}

func executorConfig(cfg config.ExecutionConfig) executor.Config {
	baseURL := cfg.PistonURL
	if cfg.Backend == constants.BackendJudge0 {
		baseURL = cfg.Judge0URL
	}

	return executor.Config{
		Backend:         cfg.Backend,
		BaseURL:         baseURL,
		APIKey:          cfg.Judge0APIKey,
		APIHost:         cfg.Judge0APIHost,
		PollMaxAttempts: cfg.PollMaxAttempts,
		PollInterval:    cfg.PollInterval,
		RequestTimeout:  cfg.RequestTimeout,
	}
}
