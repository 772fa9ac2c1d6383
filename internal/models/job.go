package models

import "time"

// JobPosting is an open position listed on the careers page
type JobPosting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Department   string    `json:"department"`
	Location     string    `json:"location"`
	ContractType string    `json:"contract_type"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ApplicationStatus tracks a candidate application
type ApplicationStatus string

// ApplicationStatus constants
const (
	ApplicationStatusNew      ApplicationStatus = "new"
	ApplicationStatusReviewed ApplicationStatus = "reviewed"
	ApplicationStatusRejected ApplicationStatus = "rejected"
	ApplicationStatusHired    ApplicationStatus = "hired"
)

// Valid reports whether s is a known application status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusNew, ApplicationStatusReviewed, ApplicationStatusRejected, ApplicationStatusHired:
		return true
	}
	return false
}

// JobApplication is a candidate's submission for a posting
type JobApplication struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	CoverLetter string            `json:"cover_letter"`
	ResumeURL   string            `json:"resume_url"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// JobPostingRequest creates or edits a posting from the admin dashboard
type JobPostingRequest struct {
	Title        string `json:"title" binding:"required"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	ContractType string `json:"contractType"`
	Description  string `json:"description"`
	IsActive     *bool  `json:"isActive"`
}

// JobPostingPatch edits some fields of a posting
type JobPostingPatch struct {
	Title        *string `json:"title"`
	Department   *string `json:"department"`
	Location     *string `json:"location"`
	ContractType *string `json:"contractType"`
	Description  *string `json:"description"`
	IsActive     *bool   `json:"isActive"`
}

// ApplyRequest is the body of POST /api/careers/apply
type ApplyRequest struct {
	JobID       string `json:"jobId" binding:"required"`
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	CoverLetter string `json:"coverLetter"`
	ResumeURL   string `json:"resumeUrl"`
}
