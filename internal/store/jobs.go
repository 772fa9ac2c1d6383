package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
)

// Jobs reads and writes job postings and applications
type Jobs struct {
	gw gateway.Gateway
}

// NewJobs creates a job store
func NewJobs(gw gateway.Gateway) *Jobs {
	return &Jobs{gw: gw}
}

// CreatePosting stores a new posting and returns it
func (s *Jobs) CreatePosting(ctx context.Context, p *models.JobPosting) (*models.JobPosting, error) {
	now := stamp(p.CreatedAt)
	created, err := s.gw.Insert(ctx, JobPostingsTable, gateway.Row{
		"title":         p.Title,
		"department":    p.Department,
		"location":      p.Location,
		"contract_type": p.ContractType,
		"description":   p.Description,
		"is_active":     p.IsActive,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		return nil, fmt.Errorf("insert job posting: %w", err)
	}
	out, err := decode[models.JobPosting](created)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPosting returns gateway.ErrNotFound when the posting does not exist
func (s *Jobs) GetPosting(ctx context.Context, id string) (*models.JobPosting, error) {
	row, err := gateway.SelectOne(ctx, s.gw, JobPostingsTable, id)
	if err != nil {
		return nil, fmt.Errorf("find job posting %s: %w", id, err)
	}
	p, err := decode[models.JobPosting](row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPostings returns postings newest first; active narrows on is_active when set
func (s *Jobs) ListPostings(ctx context.Context, active *bool) ([]models.JobPosting, error) {
	var filters []gateway.Filter
	if active != nil {
		filters = append(filters, gateway.Eq("is_active", *active))
	}
	rows, err := s.gw.Select(ctx, JobPostingsTable, filters...)
	if err != nil {
		return nil, fmt.Errorf("list job postings: %w", err)
	}
	return DecodeAll[models.JobPosting](newestFirst(rows))
}

// UpdatePosting applies the set fields of patch
func (s *Jobs) UpdatePosting(ctx context.Context, id string, patch models.JobPostingPatch, at time.Time) (*models.JobPosting, error) {
	row := gateway.Row{"updated_at": stamp(at)}
	if patch.Title != nil {
		row["title"] = *patch.Title
	}
	if patch.Department != nil {
		row["department"] = *patch.Department
	}
	if patch.Location != nil {
		row["location"] = *patch.Location
	}
	if patch.ContractType != nil {
		row["contract_type"] = *patch.ContractType
	}
	if patch.Description != nil {
		row["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		row["is_active"] = *patch.IsActive
	}

	rows, err := s.gw.Update(ctx, JobPostingsTable, row, gateway.Eq(gateway.PrimaryKey, id))
	if err != nil {
		return nil, fmt.Errorf("update job posting %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update job posting %s: %w", id, gateway.ErrNotFound)
	}
	p, err := decode[models.JobPosting](rows[0])
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertApplication stores a candidate application
func (s *Jobs) InsertApplication(ctx context.Context, a *models.JobApplication) (*models.JobApplication, error) {
	status := a.Status
	if status == "" {
		status = models.ApplicationStatusNew
	}
	created, err := s.gw.Insert(ctx, JobApplicationsTable, gateway.Row{
		"job_id":       a.JobID,
		"full_name":    a.FullName,
		"email":        a.Email,
		"phone":        a.Phone,
		"cover_letter": a.CoverLetter,
		"resume_url":   a.ResumeURL,
		"status":       string(status),
		"created_at":   stamp(a.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("insert job application: %w", err)
	}
	out, err := decode[models.JobApplication](created)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListApplications returns applications newest first, optionally for one posting
func (s *Jobs) ListApplications(ctx context.Context, jobID string) ([]models.JobApplication, error) {
	var filters []gateway.Filter
	if jobID != "" {
		filters = append(filters, gateway.Eq("job_id", jobID))
	}
	rows, err := s.gw.Select(ctx, JobApplicationsTable, filters...)
	if err != nil {
		return nil, fmt.Errorf("list job applications: %w", err)
	}
	return DecodeAll[models.JobApplication](newestFirst(rows))
}

// UpdateApplicationStatus changes the review status of one application
func (s *Jobs) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	rows, err := s.gw.Update(ctx, JobApplicationsTable, gateway.Row{"status": string(status)}, gateway.Eq(gateway.PrimaryKey, id))
	if err != nil {
		return fmt.Errorf("update job application %s: %w", id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update job application %s: %w", id, gateway.ErrNotFound)
	}
	return nil
}
