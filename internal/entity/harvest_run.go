package entity

import "time"

// HarvestRun is the working set of one pipeline execution.
type HarvestRun struct {
	ID          string          `json:"id"`
	Query       string          `json:"query"`
	ResultCount int             `json:"result_count"`
	Candidates  []CandidateLink `json:"candidates"`
	Records     []GroupRecord   `json:"records"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// NewHarvestRun starts a run for query.
func NewHarvestRun(id, query string, resultCount int) *HarvestRun {
	return &HarvestRun{
		ID:          id,
		Query:       query,
		ResultCount: resultCount,
		StartedAt:   time.Now().UTC(),
	}
}

// Summary holds the counts reported to the caller after a run.
type Summary struct {
	Candidates int            `json:"candidates"`
	Validated  int            `json:"validated"`
	Active     int            `json:"active"`
	ByStatus   map[string]int `json:"by_status"`
}

// Summarize counts the run's candidates and records.
func (r *HarvestRun) Summarize() Summary {
	s := Summary{
		Candidates: len(r.Candidates),
		Validated:  len(r.Records),
		ByStatus:   make(map[string]int),
	}
	for _, rec := range r.Records {
		s.ByStatus[rec.Status.String()]++
		if rec.IsActive() {
			s.Active++
		}
	}
	return s
}

// RunState is the externally visible state of a run in progress.
type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateHarvest   RunState = "harvesting"
	RunStateValidate  RunState = "validating"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// RunProgress is what the run store keeps for API polling.
type RunProgress struct {
	RunID     string        `json:"run_id"`
	Query     string        `json:"query"`
	State     RunState      `json:"state"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Summary   *Summary      `json:"summary,omitempty"`
	Records   []GroupRecord `json:"records,omitempty"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}
