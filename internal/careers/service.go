// Package careers runs the job board: public listings, applications and the
// dashboard's posting management.
package careers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/activity"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/gateway"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/models"
	"github.com/ibukandjoli/tekkistudio-app-sub004/internal/store"
	log "github.com/sirupsen/logrus"
)

// Errors returned by the service
var (
	ErrJobNotFound         = errors.New("job posting not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidStatus       = errors.New("invalid status")
)

// Service manages postings and applications
type Service struct {
	jobs     *store.Jobs
	activity *activity.Log
	now      func() time.Time
}

// NewService wires a careers service
func NewService(jobs *store.Jobs, activityLog *activity.Log) *Service {
	return &Service{jobs: jobs, activity: activityLog, now: time.Now}
}

// OpenPostings returns the active postings
func (s *Service) OpenPostings(ctx context.Context) ([]models.JobPosting, error) {
	active := true
	return s.jobs.ListPostings(ctx, &active)
}

// OpenPosting returns one active posting
func (s *Service) OpenPosting(ctx context.Context, id string) (*models.JobPosting, error) {
	p, err := s.posting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: %s is closed", ErrJobNotFound, id)
	}
	return p, nil
}

// Apply stores an application for an open posting
func (s *Service) Apply(ctx context.Context, req models.ApplyRequest) (*models.JobApplication, error) {
	p, err := s.OpenPosting(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	a, err := s.jobs.InsertApplication(ctx, &models.JobApplication{
		JobID:       p.ID,
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		Type:        models.ActivityJobApplication,
		Description: fmt.Sprintf("Candidature de %s pour %s", req.FullName, p.Title),
		Metadata: map[string]any{
			"application_id": a.ID,
			"job_id":         p.ID,
			"email":          req.Email,
		},
	})

	log.WithFields(log.Fields{
		"application_id": a.ID,
		"job_id":         p.ID,
	}).Info("Job application received")

	return a, nil
}

// Postings lists every posting for the dashboard, optionally by state
func (s *Service) Postings(ctx context.Context, active *bool) ([]models.JobPosting, error) {
	return s.jobs.ListPostings(ctx, active)
}

// CreatePosting publishes a new posting; postings are active unless stated otherwise
func (s *Service) CreatePosting(ctx context.Context, req models.JobPostingRequest) (*models.JobPosting, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return s.jobs.CreatePosting(ctx, &models.JobPosting{
		Title:        req.Title,
		Department:   req.Department,
		Location:     req.Location,
		ContractType: req.ContractType,
		Description:  req.Description,
		IsActive:     active,
		CreatedAt:    s.now(),
	})
}

// UpdatePosting edits the fields set in patch
func (s *Service) UpdatePosting(ctx context.Context, id string, patch models.JobPostingPatch) (*models.JobPosting, error) {
	p, err := s.jobs.UpdatePosting(ctx, id, patch, s.now())
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return p, err
}

// TogglePosting flips whether a posting is listed
func (s *Service) TogglePosting(ctx context.Context, id string) (*models.JobPosting, error) {
	p, err := s.posting(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !p.IsActive
	return s.UpdatePosting(ctx, id, models.JobPostingPatch{IsActive: &active})
}

// Applications lists applications, optionally for one posting
func (s *Service) Applications(ctx context.Context, jobID string) ([]models.JobApplication, error) {
	return s.jobs.ListApplications(ctx, jobID)
}

// SetApplicationStatus moves an application through review
func (s *Service) SetApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	err := s.jobs.UpdateApplicationStatus(ctx, id, status)
	if errors.Is(err, gateway.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrApplicationNotFound, id)
	}
	return err
}

func (s *Service) posting(ctx context.Context, id string) (*models.JobPosting, error) {
	p, err := s.jobs.GetPosting(ctx, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return p, err
}
