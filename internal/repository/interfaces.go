package repository

import (
	"context"
	"errors"

	"civicfix/internal/models"
)

// ErrDuplicateCaseID signals a unique-key violation on case_id. The
// lifecycle service regenerates the identifier and retries the insert.
var ErrDuplicateCaseID = errors.New("duplicate case id")

// ErrNotFound signals a missing row on an operation that requires one.
var ErrNotFound = errors.New("report not found")

type ReportRepository interface {
	// Insert creates the row with status forced to NEW and a
	// store-assigned id and creation time, echoed back into r.
	Insert(ctx context.Context, r *models.Report) error
	// GetByCaseID returns (nil, nil) on a miss: an unknown tracking
	// code is a result, not an error.
	GetByCaseID(ctx context.Context, caseID string) (*models.Report, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListRecent(ctx context.Context, f ReportFilter) ([]models.Report, int, error)
	// UpdateStatus is the only mutation permitted after creation.
	UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Report, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
