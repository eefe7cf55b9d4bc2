package domain

import "time"

// RunStatus is the lifecycle status of a RunRecord.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the audit trail of one GraphRunner execution.
type RunRecord struct {
	ID         string       `json:"id"`
	Workflow   string       `json:"workflow"`
	Status     RunStatus    `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
	Seeds      []SeedRecord `json:"seeds,omitempty"`
	Steps      []StepRecord `json:"steps,omitempty"`
	Artifacts  []string     `json:"artifacts,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// SeedRecord remembers a generated seed so a run can be reproduced by hand.
type SeedRecord struct {
	Step      string `json:"step"`
	Input     string `json:"input"`
	Iteration int    `json:"iteration"`
	Value     uint64 `json:"value"`
}

// StepRecord captures one node invocation.
type StepRecord struct {
	ID        string        `json:"id"`
	NodeType  string        `json:"node_type"`
	Operation string        `json:"op"`
	Iteration int           `json:"iteration"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// NewRunRecord starts a record in the running state.
func NewRunRecord(id, workflow string) *RunRecord {
	return &RunRecord{
		ID:        id,
		Workflow:  workflow,
		Status:    RunRunning,
		StartedAt: time.Now(),
	}
}

// Finish closes the record, failing it when err is non-nil.
func (r *RunRecord) Finish(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunCompleted
}
