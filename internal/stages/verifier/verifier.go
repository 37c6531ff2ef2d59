package verifier

import (
	"context"
	"strings"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/metrics"
	"github.com/codevault/worker/internal/stages/executor"
	"github.com/codevault/worker/internal/stages/harness"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/messages"
	"github.com/codevault/worker/pkg/solution"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Verifier runs a submission against a suite of test cases and reports a
// verdict per case.
type Verifier interface {
	RunSuite(
		ctx context.Context,
		language languages.LanguageType,
		code string,
		testCases []messages.TestCase,
	) solution.Result
}

type verifier struct {
	executor executor.Executor
	harness  harness.Harness
	logger   *zap.SugaredLogger
}

func NewVerifier(executor executor.Executor, harness harness.Harness) Verifier {
	return &verifier{
		executor: executor,
		harness:  harness,
		logger:   logger.NewNamedLogger("verifier"),
	}
}

// Normalize trims the whole text and the right side of every line so that
// trailing whitespace and line ending style never affect a comparison.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\v\f")
	}
	return strings.Join(lines, "\n")
}

func (v *verifier) RunSuite(
	ctx context.Context,
	language languages.LanguageType,
	code string,
	testCases []messages.TestCase,
) solution.Result {
	if len(testCases) == 0 {
		return solution.Result{
			AllPassed:   false,
			TestResults: []solution.TestResult{},
			Error:       errors.ErrNoTestCases.Error(),
		}
	}

	runID := uuid.NewString()
	v.logger.Infof("Running %d test case(s) for %s submission [RunID: %s]", len(testCases), language, runID)

	results := make([]solution.TestResult, 0, len(testCases))
	passedCount := 0
	for i, tc := range testCases {
		result := v.runTestCase(ctx, language, code, tc, i+1, runID)
		if result.Passed {
			passedCount++
		}
		metrics.ObserveTestCase(language.String(), result.Passed)
		results = append(results, result)
	}

	v.logger.Infof("Passed %d/%d test case(s) [RunID: %s]", passedCount, len(testCases), runID)

	return solution.Result{
		AllPassed:   passedCount == len(testCases),
		PassedCount: passedCount,
		TotalCount:  len(testCases),
		TestResults: results,
	}
}

func (v *verifier) runTestCase(
	ctx context.Context,
	language languages.LanguageType,
	code string,
	tc messages.TestCase,
	order int,
	runID string,
) solution.TestResult {
	result := solution.TestResult{
		Order:       order,
		Input:       tc.Input,
		Expected:    Normalize(tc.Output),
		Time:        constants.DefaultExecutionTimeLabel,
		Explanation: tc.Explanation,
	}

	program, stdin := code, tc.Input
	if language.RequiresWrapping() {
		synthesized, err := v.harness.Synthesize(code, tc)
		if err != nil {
			v.logger.Errorf("Failed to build harness for test case %d [RunID: %s]: %s", order, runID, err)
			result.Error = err.Error()
			return result
		}
		program, stdin = synthesized, ""
	}

	execution := v.executor.Execute(ctx, language, program, stdin)
	result.Time = execution.Time

	if err := ExecutionFailure(execution); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Actual = Normalize(execution.Stdout)
	result.Passed = result.Actual == result.Expected

	return result
}

// ExecutionFailure reports why an execution produced no output worth
// comparing. Compile diagnostics win over runtime stderr. Stderr of an
// accepted run is ignored.
func ExecutionFailure(execution solution.ExecutionResult) error {
	switch {
	case strings.TrimSpace(execution.CompileOutput) != "":
		return &errors.ExecutionError{
			Err:     errors.ErrCompilationFailed,
			Message: constants.CompilationErrorPrefix + execution.CompileOutput,
		}
	case execution.Stderr != "" && !execution.Accepted():
		return &errors.ExecutionError{Err: errors.ErrRuntimeFailure, Message: execution.Stderr}
	default:
		return nil
	}
}
