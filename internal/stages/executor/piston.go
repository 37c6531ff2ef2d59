package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/solution"
)

type pistonFile struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonStage struct {
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	Output   string   `json:"output"`
	Code     *int     `json:"code"`
	Signal   *string  `json:"signal"`
	WallTime *float64 `json:"wall_time"` // milliseconds
	Memory   *int64   `json:"memory"`    // bytes
}

type pistonResponse struct {
	Run     *pistonStage `json:"run"`
	Compile *pistonStage `json:"compile"`
	Message string       `json:"message"`
}

type pistonBackend struct {
	baseURL string
	client  *http.Client
}

func newPistonBackend(baseURL string, client *http.Client) *pistonBackend {
	return &pistonBackend{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *pistonBackend) Name() string {
	return constants.BackendPiston
}

func (p *pistonBackend) Run(
	ctx context.Context,
	language languages.LanguageType,
	code, stdin string,
) (solution.ExecutionResult, error) {
	pistonName, err := language.PistonName()
	if err != nil {
		return solution.ExecutionResult{}, err
	}

	file := pistonFile{Content: code}
	if language == languages.JAVA {
		file.Name = constants.JavaSourceFileName
	}

	body, err := json.Marshal(pistonRequest{
		Language: pistonName,
		Version:  constants.PistonLatestVersion,
		Files:    []pistonFile{file},
		Stdin:    stdin,
	})
	if err != nil {
		return solution.ExecutionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return solution.ExecutionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return solution.ExecutionResult{}, fmt.Errorf("%w: %w", errors.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return solution.ExecutionResult{}, fmt.Errorf("%w: %w", errors.ErrTransportFailure, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return solution.ExecutionResult{}, fmt.Errorf("%w: piston returned %s: %s",
			errors.ErrTransportFailure, resp.Status, strings.TrimSpace(string(raw)))
	}

	var decoded pistonResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return solution.ExecutionResult{}, fmt.Errorf("%w: %w", errors.ErrUnexpectedResponse, err)
	}
	if decoded.Run == nil && decoded.Compile == nil {
		return solution.ExecutionResult{}, fmt.Errorf("%w: missing run stage %s",
			errors.ErrUnexpectedResponse, decoded.Message)
	}

	return mapPistonResponse(decoded), nil
}

// mapPistonResponse folds the run and compile stages into a result. Compile
// failures win, then crash signals, then the exit code. A non zero exit that
// still produced stdout is accepted. Piston drops the run stage when
// compilation fails.
func mapPistonResponse(resp pistonResponse) solution.ExecutionResult {
	run := resp.Run
	if run == nil {
		run = &pistonStage{}
	}
	result := solution.ExecutionResult{
		Stdout: run.Stdout,
		Stderr: run.Stderr,
		Time:   constants.DefaultExecutionTimeLabel,
	}
	if run.WallTime != nil {
		result.Time = formatSeconds(time.Duration(*run.WallTime * float64(time.Millisecond)))
	}
	if run.Memory != nil {
		result.Memory = *run.Memory / 1024
	}

	compile := resp.Compile
	switch {
	case compile != nil && compile.Code != nil && *compile.Code != 0:
		result.StatusLabel = constants.StatusLabelCompilationError
		result.StatusCode = solution.StatusCompilationError
		result.CompileOutput = compile.Output
		if result.CompileOutput == "" {
			result.CompileOutput = compile.Stderr
		}
	case run.Signal != nil && *run.Signal != "":
		result.StatusLabel = constants.StatusLabelRuntimeSignal
		result.StatusCode = solution.StatusRuntimeError
	case run.Code != nil && *run.Code == 0:
		result.StatusLabel = constants.StatusLabelAccepted
		result.StatusCode = solution.StatusAccepted
	case run.Code != nil:
		if strings.TrimSpace(run.Stdout) != "" {
			result.StatusLabel = constants.StatusLabelAccepted
			result.StatusCode = solution.StatusAccepted
		} else {
			result.StatusLabel = constants.StatusLabelRuntimeNonZero
			result.StatusCode = solution.StatusRuntimeError
		}
	default:
		result.StatusLabel = constants.StatusLabelUnknown
		result.StatusCode = solution.StatusError
	}

	return result
}
