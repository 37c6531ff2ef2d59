package constants

import "encoding/json"

// Queue message types.
const (
	QueueMessageTypeWrap      = "wrap"
	QueueMessageTypeExecute   = "execute"
	QueueMessageTypeRunTests  = "run_tests"
	QueueMessageTypeHandshake = "handshake"
	QueueMessageTypeStatus    = "status"
)

// Execution status labels.
const (
	StatusLabelAccepted          = "Accepted"
	StatusLabelCompilationError  = "Compilation Error"
	StatusLabelRuntimeSignal     = "Runtime Error (Signal)"
	StatusLabelRuntimeNonZero    = "Runtime Error (Non-zero exit)"
	StatusLabelTimeLimitExceeded = "Time Limit Exceeded"
	StatusLabelUnknown           = "Unknown"
	StatusLabelError             = "Error"
)

// Verdict and wrapper messages.
const (
	CompileCheckMessage       = "Code compiled successfully!"
	CompilationErrorPrefix    = "Compilation Error: "
	NoCodeProvidedMessage     = "No code provided"
	PollTimeoutMessage        = "Code execution timed out. Please try again."
	TransportErrorPrefix      = "API Error: "
	UnexpectedResponsePrefix  = "Unexpected error: "
	DefaultSolutionTypeName   = "Solution"
	JavaDriverTypeName        = "Main"
	JavaSourceFileName        = "Main.java"
	PistonLatestVersion       = "*"
	DefaultExecutionTimeLabel = "0"
)

type WorkerStatus int

const (
	WorkerStatusIdle WorkerStatus = iota
	WorkerStatusBusy
)

func (ws WorkerStatus) String() string {
	switch ws {
	case WorkerStatusIdle:
		return "idle"
	case WorkerStatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

func (ws WorkerStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(ws.String())
}

func (ws *WorkerStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "busy":
		*ws = WorkerStatusBusy
	default:
		*ws = WorkerStatusIdle
	}
	return nil
}

// Execution backends.
const (
	BackendPiston = "piston"
	BackendJudge0 = "judge0"
)

// Configuration constants.
const (
	DefaultRabbitmqHost            = "localhost"
	DefaultRabbitmqUser            = "guest"
	DefaultRabbitmqPassword        = "guest"
	DefaultRabbitmqPort            = "5672"
	DefaultRabbitmqPublishChanSize = 100
	DefaultWorkerQueueName         = "codevault_worker_queue"
	DefaultMaxWorkers              = 10
	DefaultExecutionBackend        = BackendPiston
	DefaultPistonAPIURL            = "https://emkc.org/api/v2/piston"
	DefaultJudge0APIURL            = "https://judge0-ce.p.rapidapi.com"
	DefaultJudge0APIHost           = "judge0-ce.p.rapidapi.com"
	DefaultPollMaxAttempts         = 10
	DefaultPollIntervalMs          = 1000
	DefaultRequestTimeoutSec       = 10
	DefaultMetricsAddr             = ":9090"
)

// Judge0 status identifiers.
const (
	Judge0StatusInQueue           = 1
	Judge0StatusProcessing        = 2
	Judge0StatusAccepted          = 3
	Judge0StatusWrongAnswer       = 4
	Judge0StatusTimeLimitExceeded = 5
	Judge0StatusCompilationError  = 6
	Judge0StatusRuntimeFirst      = 7
	Judge0StatusRuntimeLast       = 12
)

// RabbitMQ specific constants.
const (
	RabbitMQReconnectTries  = 10
	RabbitMQMaxPriority     = 3
	RabbitMQRequeuePriority = 2
)
