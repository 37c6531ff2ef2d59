package messages

import (
	"encoding/json"

	"github.com/codevault/worker/pkg/constants"
)

type QueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Payload   json.RawMessage `json:"payload"`
}

type ResponseQueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Ok        bool            `json:"ok"`
	Payload   json.RawMessage `json:"payload"`
}

// WrapRequest asks for the compilable form of a submission (compile check).
type WrapRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type WrapResponse struct {
	Language string `json:"language"`
	Shape    string `json:"shape"`
	Source   string `json:"source"`
}

type ExecuteRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Input    string `json:"input"`
}

type RunTestsRequest struct {
	Language  string     `json:"language"`
	Code      string     `json:"code"`
	TestCases []TestCase `json:"testCases"`
}

type TestCase struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation"`
}

type LanguageSpec struct {
	LanguageName string `json:"name"`
	Extension    string `json:"extension"`
	PistonName   string `json:"piston_name"`
	Judge0ID     int    `json:"judge0_id"`
}

type ResponseHandshakePayload struct {
	Languages []LanguageSpec `json:"languages"`
}

type WorkerStatus struct {
	WorkerID            int                    `json:"worker_id"`
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

type ResponseWorkerStatusPayload struct {
	BusyWorkers  int            `json:"busy_workers"`
	TotalWorkers int            `json:"total_workers"`
	WorkerStatus []WorkerStatus `json:"worker_status"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
