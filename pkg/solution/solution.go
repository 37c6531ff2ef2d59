package solution

// Result is the verdict of a whole test suite.
type Result struct {
	AllPassed   bool         `json:"allPassed"`
	PassedCount int          `json:"passedCount"`
	TotalCount  int          `json:"totalCount"`
	TestResults []TestResult `json:"results"`
	// Set only when the suite could not be evaluated at all.
	Error string `json:"error,omitempty"`
}

type TestResult struct {
	Order       int    `json:"testCase"` // 1-based position in the submitted suite
	Input       string `json:"input"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual"`
	Passed      bool   `json:"passed"`
	Error       string `json:"error"`
	Time        string `json:"time"`
	Explanation string `json:"explanation"`
}
