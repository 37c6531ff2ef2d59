package solution

type StatusCode int

// Status codes follow the Judge0 numbering so results from either backend can
// be reported to callers with the same identifiers.
const (
	StatusError            StatusCode = 0
	StatusAccepted         StatusCode = 3
	StatusTimedOut         StatusCode = 5
	StatusCompilationError StatusCode = 6
	StatusRuntimeError     StatusCode = 11
)

func (sc StatusCode) String() string {
	switch sc {
	case StatusAccepted:
		return "accepted"
	case StatusTimedOut:
		return "timed_out"
	case StatusCompilationError:
		return "compilation_error"
	case StatusRuntimeError:
		return "runtime_error"
	default:
		return "error"
	}
}

// ExecutionResult is the backend independent outcome of one execution.
type ExecutionResult struct {
	Stdout        string     `json:"output"`
	Stderr        string     `json:"error"`
	StatusLabel   string     `json:"status"`
	StatusCode    StatusCode `json:"statusId"`
	Time          string     `json:"time"`
	Memory        int64      `json:"memory"`
	CompileOutput string     `json:"compileOutput"`
}

func (er ExecutionResult) Accepted() bool {
	return er.StatusCode == StatusAccepted
}
