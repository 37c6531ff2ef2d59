package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codevault/worker/internal/metrics"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/solution"
)

type judge0Submission struct {
	LanguageID int    `json:"language_id"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
	Wait       bool   `json:"wait"`
}

type judge0Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type judge0Result struct {
	Token         string        `json:"token"`
	Status        *judge0Status `json:"status"`
	Stdout        *string       `json:"stdout"`
	Stderr        *string       `json:"stderr"`
	CompileOutput *string       `json:"compile_output"`
	Time          *string       `json:"time"`
	Memory        *int64        `json:"memory"`
}

type judge0Backend struct {
	baseURL      string
	apiKey       string
	apiHost      string
	pollAttempts int
	pollInterval time.Duration
	client       *http.Client
}

func newJudge0Backend(cfg Config, client *http.Client) *judge0Backend {
	attempts := cfg.PollMaxAttempts
	if attempts < 1 {
		attempts = constants.DefaultPollMaxAttempts
	}
	return &judge0Backend{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		apiHost:      cfg.APIHost,
		pollAttempts: attempts,
		pollInterval: cfg.PollInterval,
		client:       client,
	}
}

func (j *judge0Backend) Name() string {
	return constants.BackendJudge0
}

func (j *judge0Backend) Run(
	ctx context.Context,
	language languages.LanguageType,
	code, stdin string,
) (solution.ExecutionResult, error) {
	languageID, err := language.Judge0ID()
	if err != nil {
		return solution.ExecutionResult{}, err
	}

	token, err := j.submit(ctx, judge0Submission{
		LanguageID: languageID,
		SourceCode: base64.StdEncoding.EncodeToString([]byte(code)),
		Stdin:      base64.StdEncoding.EncodeToString([]byte(stdin)),
		Wait:       false,
	})
	if err != nil {
		return solution.ExecutionResult{}, err
	}

	result, err := j.poll(ctx, token)
	if err != nil {
		return solution.ExecutionResult{}, err
	}

	return mapJudge0Result(result), nil
}

func (j *judge0Backend) submit(ctx context.Context, submission judge0Submission) (string, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return "", err
	}

	url := j.baseURL + "/submissions?base64_encoded=true&fields=*"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var created judge0Result
	if err := j.do(req, &created); err != nil {
		return "", err
	}
	if created.Token == "" {
		return "", fmt.Errorf("%w: no token returned from judge0", errors.ErrUnexpectedResponse)
	}

	return created.Token, nil
}

// poll fetches the submission until it leaves the queued and processing
// states, waiting a fixed interval between attempts.
func (j *judge0Backend) poll(ctx context.Context, token string) (judge0Result, error) {
	url := fmt.Sprintf("%s/submissions/%s?base64_encoded=true&fields=*", j.baseURL, token)

	for attempt := 1; attempt <= j.pollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return judge0Result{}, err
		}

		var result judge0Result
		if err := j.do(req, &result); err != nil {
			return judge0Result{}, err
		}

		if result.Status == nil ||
			(result.Status.ID != constants.Judge0StatusInQueue && result.Status.ID != constants.Judge0StatusProcessing) {
			metrics.ObservePollAttempts(attempt)
			return result, nil
		}

		if attempt == j.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return judge0Result{}, fmt.Errorf("%w: %w", errors.ErrTransportFailure, ctx.Err())
		case <-time.After(j.pollInterval):
		}
	}

	metrics.ObservePollAttempts(j.pollAttempts)
	return judge0Result{}, fmt.Errorf("%w: submission %s still pending after %d attempts",
		errors.ErrPollTimeout, token, j.pollAttempts)
}

func (j *judge0Backend) do(req *http.Request, out any) error {
	req.Header.Set("X-RapidAPI-Key", j.apiKey)
	req.Header.Set("X-RapidAPI-Host", j.apiHost)

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrTransportFailure, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: judge0 returned %s: %s",
			errors.ErrTransportFailure, resp.Status, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrUnexpectedResponse, err)
	}
	return nil
}

func mapJudge0Result(r judge0Result) solution.ExecutionResult {
	result := solution.ExecutionResult{
		Stdout:      decodeBase64(r.Stdout),
		Stderr:      decodeBase64(r.Stderr),
		Time:        constants.DefaultExecutionTimeLabel,
		StatusLabel: constants.StatusLabelUnknown,
		StatusCode:  solution.StatusError,
	}
	if r.Time != nil && *r.Time != "" {
		result.Time = *r.Time
	}
	if r.Memory != nil {
		result.Memory = *r.Memory
	}
	if r.Status == nil {
		return result
	}

	result.StatusCode = judge0StatusCode(r.Status.ID)
	// Warnings from a successful compile are dropped.
	if result.StatusCode == solution.StatusCompilationError {
		result.CompileOutput = decodeBase64(r.CompileOutput)
	}
	result.StatusLabel = r.Status.Description
	if result.StatusLabel == "" {
		result.StatusLabel = defaultLabel(result.StatusCode)
	}

	return result
}

func judge0StatusCode(id int) solution.StatusCode {
	switch {
	case id == constants.Judge0StatusAccepted, id == constants.Judge0StatusWrongAnswer:
		return solution.StatusAccepted
	case id == constants.Judge0StatusTimeLimitExceeded:
		return solution.StatusTimedOut
	case id == constants.Judge0StatusCompilationError:
		return solution.StatusCompilationError
	case id >= constants.Judge0StatusRuntimeFirst && id <= constants.Judge0StatusRuntimeLast:
		return solution.StatusRuntimeError
	default:
		return solution.StatusError
	}
}

func defaultLabel(code solution.StatusCode) string {
	switch code {
	case solution.StatusAccepted:
		return constants.StatusLabelAccepted
	case solution.StatusTimedOut:
		return constants.StatusLabelTimeLimitExceeded
	case solution.StatusCompilationError:
		return constants.StatusLabelCompilationError
	case solution.StatusRuntimeError:
		return constants.StatusLabelRuntimeNonZero
	default:
		return constants.StatusLabelError
	}
}

// decodeBase64 returns the decoded text, or the raw text when it is not valid
// base64.
func decodeBase64(s *string) string {
	if s == nil || *s == "" {
		return ""
	}
	// judge0 wraps base64 output at 60 columns
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(*s, "\n", ""))
	if err != nil {
		return *s
	}
	return string(decoded)
}
