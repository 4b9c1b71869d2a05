package response

import (
	"time"

	"github.com/user/invite-harvester/internal/entity"
)

type SubmitHarvestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// RunStatusResponse is the polling view of a run, mirroring entity.RunProgress.
type RunStatusResponse struct {
	RunID     string               `json:"run_id"`
	Query     string               `json:"query"`
	State     string               `json:"state"` // pending, harvesting, validating, completed, failed
	Completed int                  `json:"completed"`
	Total     int                  `json:"total"`
	Summary   *entity.Summary      `json:"summary,omitempty"`
	Records   []entity.GroupRecord `json:"records"`
	Error     string               `json:"error,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func NewRunStatusResponse(p *entity.RunProgress, activeOnly bool) RunStatusResponse {
	records := p.Records
	if activeOnly {
		records = entity.ActiveOnly(records)
	}
	if records == nil {
		records = []entity.GroupRecord{}
	}
	return RunStatusResponse{
		RunID:     p.RunID,
		Query:     p.Query,
		State:     string(p.State),
		Completed: p.Completed,
		Total:     p.Total,
		Summary:   p.Summary,
		Records:   records,
		Error:     p.Error,
		UpdatedAt: p.UpdatedAt,
	}
}

type PublishResponse struct {
	PostID int    `json:"post_id"`
	Link   string `json:"link,omitempty"`
	Status string `json:"status"`
}
