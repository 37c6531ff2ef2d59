package executor_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/codevault/worker/internal/stages/executor"
	"github.com/codevault/worker/pkg/constants"
	pkgerrors "github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/languages"
	"github.com/codevault/worker/pkg/solution"
)

func newPistonExecutor(t *testing.T, handler http.HandlerFunc) Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ex, err := NewExecutor(Config{
		Backend:        constants.BackendPiston,
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return ex
}

func newJudge0Executor(t *testing.T, handler http.HandlerFunc, attempts int) Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ex, err := NewExecutor(Config{
		Backend:         constants.BackendJudge0,
		BaseURL:         srv.URL,
		APIKey:          "key-1",
		APIHost:         "judge0.test",
		PollMaxAttempts: attempts,
		PollInterval:    time.Millisecond,
		RequestTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return ex
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestNewExecutor_UnknownBackend(t *testing.T) {
	_, err := NewExecutor(Config{Backend: "sandboxd"})
	if !errors.Is(err, pkgerrors.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestExecute_BlankCodeMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	res := ex.Execute(context.Background(), languages.PYTHON, " \n\t ", "")

	if res.StatusCode != solution.StatusError {
		t.Fatalf("expected status %v, got %v", solution.StatusError, res.StatusCode)
	}
	if res.Stderr != constants.NoCodeProvidedMessage {
		t.Fatalf("expected %q, got %q", constants.NoCodeProvidedMessage, res.Stderr)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no backend request, got %d", hits.Load())
	}
}

func TestPiston_RequestShape(t *testing.T) {
	ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/execute" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Language string `json:"language"`
			Version  string `json:"version"`
			Files    []struct {
				Name    string `json:"name"`
				Content string `json:"content"`
			} `json:"files"`
			Stdin string `json:"stdin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body.Language != "java" || body.Version != "*" {
			t.Errorf("unexpected language/version %q/%q", body.Language, body.Version)
		}
		if len(body.Files) != 1 || body.Files[0].Name != "Main.java" || body.Files[0].Content != "class X {}" {
			t.Errorf("unexpected files %+v", body.Files)
		}
		if body.Stdin != "1 2" {
			t.Errorf("unexpected stdin %q", body.Stdin)
		}
		writeJSON(t, w, map[string]any{
			"run": map[string]any{"stdout": "3\n", "stderr": "", "code": 0, "signal": nil, "wall_time": 250, "memory": 2048000},
		})
	})

	res := ex.Execute(context.Background(), languages.JAVA, "class X {}", "1 2")

	if res.StatusCode != solution.StatusAccepted || res.StatusLabel != constants.StatusLabelAccepted {
		t.Fatalf("expected accepted, got %v (%s)", res.StatusCode, res.StatusLabel)
	}
	if res.Stdout != "3\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if res.Time != "0.250" {
		t.Fatalf("expected time 0.250, got %q", res.Time)
	}
	if res.Memory != 2000 {
		t.Fatalf("expected 2000 KB, got %d", res.Memory)
	}
}

func TestPiston_NonJavaFilesHaveNoName(t *testing.T) {
	ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		file := body["files"].([]any)[0].(map[string]any)
		if _, ok := file["name"]; ok {
			t.Errorf("expected no file name for python, got %v", file["name"])
		}
		if body["language"] != "python" {
			t.Errorf("unexpected language %v", body["language"])
		}
		writeJSON(t, w, map[string]any{"run": map[string]any{"stdout": "", "code": 0}})
	})

	res := ex.Execute(context.Background(), languages.PYTHON, "print(1)", "")
	if res.Time != constants.DefaultExecutionTimeLabel {
		t.Fatalf("expected default time label, got %q", res.Time)
	}
}

func TestPiston_StatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		response    map[string]any
		wantCode    solution.StatusCode
		wantLabel   string
		wantCompile string
	}{
		{
			name: "compile failure",
			response: map[string]any{
				"compile": map[string]any{"code": 1, "output": "Main.java:1: error"},
				"run":     map[string]any{"stdout": "", "code": nil},
			},
			wantCode:    solution.StatusCompilationError,
			wantLabel:   constants.StatusLabelCompilationError,
			wantCompile: "Main.java:1: error",
		},
		{
			name: "compile failure without run stage",
			response: map[string]any{
				"compile": map[string]any{"code": 1, "output": "Main.java:3: error: ';' expected"},
			},
			wantCode:    solution.StatusCompilationError,
			wantLabel:   constants.StatusLabelCompilationError,
			wantCompile: "Main.java:3: error: ';' expected",
		},
		{
			name: "successful compile output is not reported",
			response: map[string]any{
				"compile": map[string]any{"code": 0, "output": "Note: unchecked"},
				"run":     map[string]any{"stdout": "ok", "code": 0},
			},
			wantCode:  solution.StatusAccepted,
			wantLabel: constants.StatusLabelAccepted,
		},
		{
			name:      "signal",
			response:  map[string]any{"run": map[string]any{"stdout": "partial", "code": nil, "signal": "SIGKILL"}},
			wantCode:  solution.StatusRuntimeError,
			wantLabel: constants.StatusLabelRuntimeSignal,
		},
		{
			name:      "non zero exit with stdout",
			response:  map[string]any{"run": map[string]any{"stdout": "[1,2]", "stderr": "warn", "code": 1}},
			wantCode:  solution.StatusAccepted,
			wantLabel: constants.StatusLabelAccepted,
		},
		{
			name:      "non zero exit without stdout",
			response:  map[string]any{"run": map[string]any{"stdout": "  \n", "stderr": "boom", "code": 1}},
			wantCode:  solution.StatusRuntimeError,
			wantLabel: constants.StatusLabelRuntimeNonZero,
		},
		{
			name:      "no exit code",
			response:  map[string]any{"run": map[string]any{"stdout": ""}},
			wantCode:  solution.StatusError,
			wantLabel: constants.StatusLabelUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.response)
			})

			res := ex.Execute(context.Background(), languages.CPP, "int main(){}", "")
			if res.StatusCode != tt.wantCode {
				t.Fatalf("expected code %v, got %v", tt.wantCode, res.StatusCode)
			}
			if res.StatusLabel != tt.wantLabel {
				t.Fatalf("expected label %q, got %q", tt.wantLabel, res.StatusLabel)
			}
			if res.CompileOutput != tt.wantCompile {
				t.Fatalf("expected compile output %q, got %q", tt.wantCompile, res.CompileOutput)
			}
		})
	}
}

func TestPiston_TransportFailures(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})
		res := ex.Execute(context.Background(), languages.PYTHON, "print(1)", "")
		if res.StatusCode != solution.StatusError {
			t.Fatalf("expected error status, got %v", res.StatusCode)
		}
		if !strings.HasPrefix(res.Stderr, constants.TransportErrorPrefix) {
			t.Fatalf("expected transport prefix, got %q", res.Stderr)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})
		res := ex.Execute(context.Background(), languages.PYTHON, "print(1)", "")
		if res.StatusCode != solution.StatusError {
			t.Fatalf("expected error status, got %v", res.StatusCode)
		}
		if !strings.HasPrefix(res.Stderr, constants.UnexpectedResponsePrefix) {
			t.Fatalf("expected unexpected response prefix, got %q", res.Stderr)
		}
	})

	t.Run("no stages", func(t *testing.T) {
		ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"message": "runtime is unknown"})
		})
		res := ex.Execute(context.Background(), languages.PYTHON, "print(1)", "")
		if res.StatusCode != solution.StatusError {
			t.Fatalf("expected error status, got %v", res.StatusCode)
		}
		if !strings.HasPrefix(res.Stderr, constants.UnexpectedResponsePrefix) {
			t.Fatalf("expected unexpected response prefix, got %q", res.Stderr)
		}
	})

	t.Run("unsupported language", func(t *testing.T) {
		ex := newPistonExecutor(t, func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("no request expected")
		})
		res := ex.Execute(context.Background(), languages.LanguageType(99), "x", "")
		if res.StatusCode != solution.StatusError || res.Stderr != pkgerrors.ErrInvalidLanguageType.Error() {
			t.Fatalf("unexpected result %+v", res)
		}
	})
}

func TestJudge0_SubmitAndPoll(t *testing.T) {
	var polls atomic.Int32
	ex := newJudge0Executor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "key-1" || r.Header.Get("X-RapidAPI-Host") != "judge0.test" {
			t.Errorf("missing rapidapi headers")
		}
		if r.URL.Query().Get("base64_encoded") != "true" || r.URL.Query().Get("fields") != "*" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/submissions":
			var body struct {
				LanguageID int    `json:"language_id"`
				SourceCode string `json:"source_code"`
				Stdin      string `json:"stdin"`
				Wait       bool   `json:"wait"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode submission: %v", err)
			}
			if body.LanguageID != 71 || body.SourceCode != b64("print(input())") || body.Stdin != b64("hi") || body.Wait {
				t.Errorf("unexpected submission %+v", body)
			}
			writeJSON(t, w, map[string]any{"token": "tok-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/submissions/tok-1":
			if polls.Add(1) < 3 {
				writeJSON(t, w, map[string]any{"status": map[string]any{"id": 2, "description": "Processing"}})
				return
			}
			writeJSON(t, w, map[string]any{
				"status":         map[string]any{"id": 3, "description": "Accepted"},
				"stdout":         b64("hi\n"),
				"stderr":         nil,
				"compile_output": nil,
				"time":           "0.012",
				"memory":         3400,
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}, 5)

	res := ex.Execute(context.Background(), languages.PYTHON, "print(input())", "hi")

	if res.StatusCode != solution.StatusAccepted || res.StatusLabel != "Accepted" {
		t.Fatalf("expected accepted, got %+v", res)
	}
	if res.Stdout != "hi\n" || res.Time != "0.012" || res.Memory != 3400 {
		t.Fatalf("unexpected result %+v", res)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected 3 polls, got %d", polls.Load())
	}
}

func TestJudge0_PollBudgetExhausted(t *testing.T) {
	var polls atomic.Int32
	ex := newJudge0Executor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(t, w, map[string]any{"token": "slow"})
			return
		}
		polls.Add(1)
		writeJSON(t, w, map[string]any{"status": map[string]any{"id": 1, "description": "In Queue"}})
	}, 3)

	res := ex.Execute(context.Background(), languages.CPP, "int main(){}", "")

	if res.StatusCode != solution.StatusTimedOut {
		t.Fatalf("expected timed out status, got %v", res.StatusCode)
	}
	if res.Stderr != constants.PollTimeoutMessage {
		t.Fatalf("expected %q, got %q", constants.PollTimeoutMessage, res.Stderr)
	}
	if polls.Load() != 3 {
		t.Fatalf("expected exactly 3 polls, got %d", polls.Load())
	}
}

func TestJudge0_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   map[string]any
		extra    map[string]any
		wantCode solution.StatusCode
		check    func(t *testing.T, res solution.ExecutionResult)
	}{
		{
			name:     "compilation error",
			status:   map[string]any{"id": 6, "description": "Compilation Error"},
			extra:    map[string]any{"compile_output": b64("error: ';' expected")},
			wantCode: solution.StatusCompilationError,
			check: func(t *testing.T, res solution.ExecutionResult) {
				if res.CompileOutput != "error: ';' expected" {
					t.Fatalf("unexpected compile output %q", res.CompileOutput)
				}
			},
		},
		{
			name:     "compiler warnings on accepted run are dropped",
			status:   map[string]any{"id": 3, "description": "Accepted"},
			extra:    map[string]any{"compile_output": b64("warning: unused variable 'x'"), "stdout": b64("1\n")},
			wantCode: solution.StatusAccepted,
			check: func(t *testing.T, res solution.ExecutionResult) {
				if res.CompileOutput != "" {
					t.Fatalf("expected no compile output, got %q", res.CompileOutput)
				}
			},
		},
		{
			name:     "runtime error",
			status:   map[string]any{"id": 11, "description": "Runtime Error (NZEC)"},
			extra:    map[string]any{"stderr": b64("Traceback")},
			wantCode: solution.StatusRuntimeError,
			check: func(t *testing.T, res solution.ExecutionResult) {
				if res.Stderr != "Traceback" || res.StatusLabel != "Runtime Error (NZEC)" {
					t.Fatalf("unexpected result %+v", res)
				}
			},
		},
		{
			name:     "wrong answer counts as accepted",
			status:   map[string]any{"id": 4, "description": "Wrong Answer"},
			wantCode: solution.StatusAccepted,
		},
		{
			name:     "time limit",
			status:   map[string]any{"id": 5},
			wantCode: solution.StatusTimedOut,
			check: func(t *testing.T, res solution.ExecutionResult) {
				if res.StatusLabel != constants.StatusLabelTimeLimitExceeded {
					t.Fatalf("expected default label, got %q", res.StatusLabel)
				}
			},
		},
		{
			name:     "internal error",
			status:   map[string]any{"id": 13, "description": "Internal Error"},
			wantCode: solution.StatusError,
		},
		{
			name:     "undecodable output is kept raw",
			status:   map[string]any{"id": 3, "description": "Accepted"},
			extra:    map[string]any{"stdout": "not base64!"},
			wantCode: solution.StatusAccepted,
			check: func(t *testing.T, res solution.ExecutionResult) {
				if res.Stdout != "not base64!" {
					t.Fatalf("expected raw stdout, got %q", res.Stdout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := newJudge0Executor(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					writeJSON(t, w, map[string]any{"token": "t"})
					return
				}
				body := map[string]any{"status": tt.status}
				for k, v := range tt.extra {
					body[k] = v
				}
				writeJSON(t, w, body)
			}, 2)

			res := ex.Execute(context.Background(), languages.JAVA, "class Main {}", "")
			if res.StatusCode != tt.wantCode {
				t.Fatalf("expected code %v, got %v", tt.wantCode, res.StatusCode)
			}
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestJudge0_MissingToken(t *testing.T) {
	ex := newJudge0Executor(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{})
	}, 2)

	res := ex.Execute(context.Background(), languages.JAVA, "class Main {}", "")
	if res.StatusCode != solution.StatusError {
		t.Fatalf("expected error status, got %v", res.StatusCode)
	}
	if !strings.HasPrefix(res.Stderr, constants.UnexpectedResponsePrefix) {
		t.Fatalf("expected unexpected response prefix, got %q", res.Stderr)
	}
}
