package entity

import "time"

// CandidateLink is a normalized invite URL: scheme, host and path only.
type CandidateLink string

func (l CandidateLink) String() string { return string(l) }

// GroupRecord is the validation outcome for one CandidateLink.
// Name is non-empty if and only if Status is StatusActive; use the
// constructors below rather than building the struct by hand.
type GroupRecord struct {
	Link           CandidateLink `json:"link"`
	Status         Status        `json:"status"`
	Name           string        `json:"name,omitempty"`
	LogoURL        string        `json:"logo_url,omitempty"`
	Description    string        `json:"description,omitempty"`
	HTTPStatusCode int           `json:"http_status_code,omitempty"`
	Error          string        `json:"error,omitempty"`
	CheckedAt      time.Time     `json:"checked_at"`
}

// NewActiveRecord builds an Active record. It falls back to NoNameFound
// when name is empty so the Active invariant cannot be broken.
func NewActiveRecord(link CandidateLink, name, logoURL, description string, httpStatus int) GroupRecord {
	if name == "" {
		return NewFailedRecord(link, StatusNoNameFound, httpStatus, "no group name in page metadata")
	}
	return GroupRecord{
		Link:           link,
		Status:         StatusActive,
		Name:           name,
		LogoURL:        logoURL,
		Description:    description,
		HTTPStatusCode: httpStatus,
		CheckedAt:      time.Now().UTC(),
	}
}

// NewFailedRecord builds a record for any non-Active status.
func NewFailedRecord(link CandidateLink, status Status, httpStatus int, reason string) GroupRecord {
	if status == StatusActive {
		status = StatusNoNameFound
	}
	return GroupRecord{
		Link:           link,
		Status:         status,
		HTTPStatusCode: httpStatus,
		Error:          reason,
		CheckedAt:      time.Now().UTC(),
	}
}

// IsActive reports whether the record is Active with a name.
func (r GroupRecord) IsActive() bool {
	return r.Status == StatusActive && r.Name != ""
}

// WithDescription returns a copy carrying an enrichment description.
func (r GroupRecord) WithDescription(description string) GroupRecord {
	r.Description = description
	return r
}

// ActiveOnly keeps the Active, named records, preserving order.
func ActiveOnly(records []GroupRecord) []GroupRecord {
	active := make([]GroupRecord, 0, len(records))
	for _, r := range records {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	return active
}
