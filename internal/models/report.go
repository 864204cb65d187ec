package models

import "time"

// Status is the fixed triage workflow for a report.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusVerified    Status = "VERIFIED"
	StatusActionTaken Status = "ACTION_TAKEN"
	StatusClosed      Status = "CLOSED"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusNew, StatusUnderReview, StatusVerified, StatusActionTaken, StatusClosed}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusVerified, StatusActionTaken, StatusClosed:
		return true
	}
	return false
}

// Well-known issue categories. The column stays an open string: unknown
// labels submitted by clients are accepted as-is.
const (
	IssueRoad        = "road"
	IssueWater       = "water"
	IssueSanitation  = "sanitation"
	IssueElectricity = "electricity"
	IssueOther       = "other"
)

// Report is one citizen-submitted issue plus its administrative status.
// Only Status changes after creation.
type Report struct {
	ID          string    `json:"id"`
	CaseID      string    `json:"caseId"`
	CitizenName string    `json:"citizenName,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ImagePath   string    `json:"imagePath,omitempty"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	IssueType   string    `json:"issueType"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PublicReport is the projection exposed to unauthenticated trackers.
// Contact and image fields are withheld on purpose.
type PublicReport struct {
	CaseID    string    `json:"case_id"`
	Status    Status    `json:"status"`
	IssueType string    `json:"issue_type"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the tracking projection of the report.
func (r *Report) Public() PublicReport {
	return PublicReport{
		CaseID:    r.CaseID,
		Status:    r.Status,
		IssueType: r.IssueType,
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}
