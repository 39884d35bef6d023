package entities

import "time"

// RunStatus represents the state of a fill run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusStopped   RunStatus = "stopped"
	RunStatusFailed    RunStatus = "failed"
)

// RowOutcome records what happened to a single row.
type RowOutcome struct {
	Entry        int       `json:"entry"`
	ElementRange string    `json:"element_range"`
	Success      bool      `json:"success"`
	Attempts     int       `json:"attempts"`
	Error        string    `json:"error,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Report summarizes a run.
type Report struct {
	ID         string       `json:"id"`
	URL        string       `json:"url"`
	File       string       `json:"file"`
	Status     RunStatus    `json:"status"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Outcomes   []RowOutcome `json:"outcomes"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Processed is the number of rows that reached a final outcome.
func (r *Report) Processed() int {
	return r.Succeeded + r.Failed
}

// Record appends an outcome and updates the counters.
func (r *Report) Record(o RowOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}
