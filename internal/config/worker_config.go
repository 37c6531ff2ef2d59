package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/pkg/constants"
	"github.com/joho/godotenv"
)

type Config struct {
	RabbitMQURL      string
	PublishChanSize  int
	ConsumeQueueName string
	MaxWorkers       int
	Execution        ExecutionConfig
	MetricsAddr      string
}

// ExecutionConfig selects and parameterizes the remote execution backend.
type ExecutionConfig struct {
	Backend         string
	PistonURL       string
	Judge0URL       string
	Judge0APIKey    string
	Judge0APIHost   string
	PollMaxAttempts int
	PollInterval    time.Duration
	RequestTimeout  time.Duration
}

func NewConfig() *Config {
	logger := logger.NewNamedLogger("config")

	_, err := os.Stat(".env")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("failed to stat .env file with error: %v", err)
		}
	} else {
		if os.Getenv("ENV") == "PROD" {
			logger.Warn(".env file detected in production environment. This is not recommended.")
		}
		err = godotenv.Load(".env")
		if err != nil {
			logger.Fatalf("failed to load .env file with error: %v", err)
		}
	}

	rabbitmqURL, publishChanSize := rabbitmqConfig()
	workerQueueName, maxWorkers := workerConfig()

	return &Config{
		RabbitMQURL:      rabbitmqURL,
		PublishChanSize:  publishChanSize,
		ConsumeQueueName: workerQueueName,
		MaxWorkers:       int(maxWorkers),
		Execution:        executionConfig(),
		MetricsAddr:      metricsConfig(),
	}
}

func rabbitmqConfig() (string, int) {
	logger := logger.NewNamedLogger("config")

	rabbitmqHost := getEnvOrDefault("RABBITMQ_HOST", constants.DefaultRabbitmqHost)
	rabbitmqPortStr := getEnvOrDefault("RABBITMQ_PORT", constants.DefaultRabbitmqPort)
	rabbitmqPort, err := strconv.ParseUint(rabbitmqPortStr, 10, 16)
	if err != nil {
		logger.Fatalf("failed to parse RABBITMQ_PORT with error: %v", err)
	}
	rabbitmqUser := getEnvOrDefault("RABBITMQ_USER", constants.DefaultRabbitmqUser)
	rabbitmqPassword := getEnvOrDefault("RABBITMQ_PASSWORD", constants.DefaultRabbitmqPassword)
	publishChanSize := getIntEnvOrDefault("RABBITMQ_PUBLISH_CHAN_SIZE", constants.DefaultRabbitmqPublishChanSize)

	rabbitmqURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", rabbitmqUser, rabbitmqPassword, rabbitmqHost, rabbitmqPort)

	return rabbitmqURL, publishChanSize
}

func workerConfig() (string, int64) {
	logger := logger.NewNamedLogger("config")

	workerQueueName := getEnvOrDefault("WORKER_QUEUE_NAME", constants.DefaultWorkerQueueName)

	var maxWorkers int64 = constants.DefaultMaxWorkers
	maxWorkersStr := os.Getenv("MAX_WORKERS")
	if maxWorkersStr == "" {
		logger.Warnf("MAX_WORKERS is not set, using default value %d", constants.DefaultMaxWorkers)
	} else {
		var err error
		maxWorkers, err = strconv.ParseInt(maxWorkersStr, 10, 8)
		if err != nil {
			logger.Fatalf("failed to parse MAX_WORKERS with error: %v", err)
		}
		if maxWorkers < 1 {
			logger.Fatalf("MAX_WORKERS must be positive, got %d", maxWorkers)
		}
	}

	return workerQueueName, maxWorkers
}

func executionConfig() ExecutionConfig {
	logger := logger.NewNamedLogger("config")

	backend := strings.ToLower(getEnvOrDefault("EXECUTION_BACKEND", constants.DefaultExecutionBackend))
	pollAttempts := getIntEnvOrDefault("POLL_MAX_ATTEMPTS", constants.DefaultPollMaxAttempts)
	pollIntervalMs := getIntEnvOrDefault("POLL_INTERVAL_MS", constants.DefaultPollIntervalMs)
	requestTimeoutSec := getIntEnvOrDefault("REQUEST_TIMEOUT_SEC", constants.DefaultRequestTimeoutSec)

	judge0Key := os.Getenv("JUDGE0_API_KEY")
	if backend == constants.BackendJudge0 && judge0Key == "" {
		logger.Warn("JUDGE0_API_KEY is not set, requests to RapidAPI hosted Judge0 will be rejected")
	}

	cfg := ExecutionConfig{
		Backend:         backend,
		PistonURL:       strings.TrimRight(getEnvOrDefault("PISTON_API_URL", constants.DefaultPistonAPIURL), "/"),
		Judge0URL:       strings.TrimRight(getEnvOrDefault("JUDGE0_API_URL", constants.DefaultJudge0APIURL), "/"),
		Judge0APIKey:    judge0Key,
		Judge0APIHost:   getEnvOrDefault("JUDGE0_API_HOST", constants.DefaultJudge0APIHost),
		PollMaxAttempts: pollAttempts,
		PollInterval:    time.Duration(pollIntervalMs) * time.Millisecond,
		RequestTimeout:  time.Duration(requestTimeoutSec) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid execution config: %v", err)
	}

	return cfg
}

// Validate rejects settings the executor cannot run with. A zero request
// timeout would disable the HTTP client timeout.
func (c ExecutionConfig) Validate() error {
	if c.Backend != constants.BackendPiston && c.Backend != constants.BackendJudge0 {
		return fmt.Errorf("EXECUTION_BACKEND must be %q or %q, got %q",
			constants.BackendPiston, constants.BackendJudge0, c.Backend)
	}
	if c.PollMaxAttempts < 1 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive, got %d", c.PollMaxAttempts)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must not be negative, got %d", c.PollInterval.Milliseconds())
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("REQUEST_TIMEOUT_SEC must be at least 1, got %d", int64(c.RequestTimeout/time.Second))
	}
	return nil
}

func metricsConfig() string {
	addr, ok := os.LookupEnv("METRICS_ADDR")
	if !ok {
		return constants.DefaultMetricsAddr
	}
	return addr
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		logger.NewNamedLogger("config").Warnf("%s is not set, using default value %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		logger.NewNamedLogger("config").Warnf("%s is not set, using default value %d", key, defaultValue)
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.NewNamedLogger("config").Fatalf("failed to parse %s with error: %v", key, err)
	}
	return value
}
