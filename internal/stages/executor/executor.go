package executor

import (
	"context"
	e "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/metrics"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/solution"
	"go.uber.org/zap"
)

// Config selects the execution backend and how it is reached.
type Config struct {
	Backend         string
	BaseURL         string
	APIKey          string
	APIHost         string
	PollMaxAttempts int
	PollInterval    time.Duration
	RequestTimeout  time.Duration
}

type Executor interface {
	// Execute runs code on the configured backend. Failures never escape as
	// errors, they are reported through the result status.
	Execute(ctx context.Context, language languages.LanguageType, code, stdin string) solution.ExecutionResult
}

// backend is one remote sandbox protocol.
type backend interface {
	Name() string
	Run(ctx context.Context, language languages.LanguageType, code, stdin string) (solution.ExecutionResult, error)
}

type executor struct {
	backend backend
	logger  *zap.SugaredLogger
}

func NewExecutor(cfg Config) (Executor, error) {
	client := &http.Client{Timeout: cfg.RequestTimeout}

	var b backend
	switch strings.ToLower(cfg.Backend) {
	case constants.BackendPiston:
		b = newPistonBackend(cfg.BaseURL, client)
	case constants.BackendJudge0:
		b = newJudge0Backend(cfg, client)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownBackend, cfg.Backend)
	}

	return &executor{
		backend: b,
		logger:  logger.NewNamedLogger(b.Name() + "-executor"),
	}, nil
}

func (ex *executor) Execute(
	ctx context.Context,
	language languages.LanguageType,
	code, stdin string,
) solution.ExecutionResult {
	if strings.TrimSpace(code) == "" {
		return resultFromError(errors.ErrEmptyCode)
	}

	start := time.Now()
	result, err := ex.backend.Run(ctx, language, code, stdin)
	if err != nil {
		ex.logger.Errorf("Execution of %s code failed: %s", language, err)
		result = resultFromError(err)
	}

	metrics.ObserveExecution(ex.backend.Name(), result.StatusCode.String(), time.Since(start))
	ex.logger.Infof("Executed %s code: %s", language, result.StatusLabel)

	return result
}

func resultFromError(err error) solution.ExecutionResult {
	switch {
	case e.Is(err, errors.ErrPollTimeout):
		res := errorResult(constants.PollTimeoutMessage)
		res.StatusLabel = constants.StatusLabelTimeLimitExceeded
		res.StatusCode = solution.StatusTimedOut
		return res
	case e.Is(err, errors.ErrEmptyCode):
		return errorResult(constants.NoCodeProvidedMessage)
	case e.Is(err, errors.ErrInvalidLanguageType):
		return errorResult(err.Error())
	case e.Is(err, errors.ErrUnexpectedResponse):
		return errorResult(constants.UnexpectedResponsePrefix + err.Error())
	default:
		return errorResult(constants.TransportErrorPrefix + err.Error())
	}
}

func errorResult(message string) solution.ExecutionResult {
	return solution.ExecutionResult{
		Stderr:      message,
		StatusLabel: constants.StatusLabelError,
		StatusCode:  solution.StatusError,
		Time:        constants.DefaultExecutionTimeLabel,
	}
}

// formatSeconds renders a duration the way judge0 reports times.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
