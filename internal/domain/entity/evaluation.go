package entity

// Step records one tool call of an agent run and the result it produced.
type Step struct {
	Tool   string
	Result ActionResult
}

type EvaluationCriteria struct {
	Goal   string
	Answer string
	Steps  []Step
	// Final is the last page the task saw, if any.
	Final *PageContent
}

type EvaluationResult struct {
	Success     bool     `json:"success"`
	Confidence  float64  `json:"confidence"`
	Issues      []string `json:"issues"`
	Feedback    string   `json:"feedback"`
	ShouldRetry bool     `json:"should_retry"`
}
