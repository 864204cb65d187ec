package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"civicfix/internal/caseid"
	"civicfix/internal/models"
	"civicfix/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrValidation covers missing or malformed client input.
	ErrValidation = errors.New("location and issue_type required")
	// ErrInvalidStatus rejects status values outside the fixed set.
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrIdentifierExhausted means every insert attempt hit a case_id
	// collision. With a million codes per year this signals either
	// extreme load or a broken random source; it is worth an alert.
	ErrIdentifierExhausted = errors.New("case identifier space exhausted")
)

// insertAttempts bounds the regenerate-and-retry loop around case_id
// collisions.
const insertAttempts = 5

// MediaStore is the slice of the media intake the lifecycle needs.
type MediaStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(ref string) error
}

// Submission is a validated-on-entry draft of a report.
type Submission struct {
	CitizenName string
	Email       string
	Phone       string
	Location    string
	Description string
	IssueType   string
	Photo       *multipart.FileHeader
}

// ReportService orchestrates intake, identifier issuance and persistence,
// and applies the one post-creation mutation: status.
type ReportService struct {
	reports repository.ReportRepository
	media   MediaStore
	ids     caseid.Generator
	log     zerolog.Logger
}

func NewReportService(reports repository.ReportRepository, media MediaStore, ids caseid.Generator, log zerolog.Logger) *ReportService {
	return &ReportService{reports: reports, media: media, ids: ids, log: log}
}

// Submit turns a citizen submission into a persisted, uniquely-identified
// report. Input validation happens before any file or store work; a stored
// photo is removed again if the row never makes it in.
func (s *ReportService) Submit(ctx context.Context, in Submission) (*models.Report, error) {
	in.Location = strings.TrimSpace(in.Location)
	in.IssueType = strings.TrimSpace(in.IssueType)
	if in.Location == "" || in.IssueType == "" {
		return nil, ErrValidation
	}

	imagePath, err := s.media.Save(in.Photo)
	if err != nil {
		return nil, err
	}

	r := &models.Report{
		CitizenName: strings.TrimSpace(in.CitizenName),
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		ImagePath:   imagePath,
		Location:    in.Location,
		Description: strings.TrimSpace(in.Description),
		IssueType:   in.IssueType,
	}

	if err := s.insertWithRetry(ctx, r); err != nil {
		if imagePath != "" {
			if rmErr := s.media.Remove(imagePath); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("image", imagePath).Msg("orphaned upload not removed")
			}
		}
		return nil, err
	}

	s.log.Info().Str("case_id", r.CaseID).Str("issue_type", r.IssueType).Msg("report created")
	return r, nil
}

// insertWithRetry draws a fresh case identifier per attempt; the store's
// unique index is the arbiter under concurrency.
func (s *ReportService) insertWithRetry(ctx context.Context, r *models.Report) error {
	for attempt := 1; attempt <= insertAttempts; attempt++ {
		r.CaseID = s.ids.New()
		err := s.reports.Insert(ctx, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCaseID) {
			return err
		}
		s.log.Debug().Str("case_id", r.CaseID).Int("attempt", attempt).Msg("case id collision, regenerating")
	}
	s.log.Error().Int("attempts", insertAttempts).Msg("case id retries exhausted")
	return ErrIdentifierExhausted
}

// Track resolves a public tracking code to its narrow snapshot.
// (nil, nil) means the code was never issued.
func (s *ReportService) Track(ctx context.Context, caseID string) (*models.PublicReport, error) {
	r, err := s.reports.GetByCaseID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	p := r.Public()
	return &p, nil
}

// UpdateStatus applies an administrative status change. The target must be
// a member of the fixed set; the transition policy itself lives in
// canTransition so it can be tightened without touching callers.
func (s *ReportService) UpdateStatus(ctx context.Context, id string, target models.Status) (*models.Report, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	current, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, repository.ErrNotFound
	}
	if !canTransition(current.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, current.Status, target)
	}
	return s.reports.UpdateStatus(ctx, id, target)
}

// canTransition is deliberately permissive: any valid status may be set
// from any state. Single choke point for a stricter policy later.
func canTransition(from, to models.Status) bool {
	return true
}
