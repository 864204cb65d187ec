package repository

import (
	"context"
	"time"

	"civicfix/internal/models"
)

// WithTimeout bounds every report-store call with its own deadline. When
// the pool is exhausted the acquire fails within the bound instead of
// holding the request for as long as the client stays connected; callers
// see context.DeadlineExceeded and map it to a 503.
func WithTimeout(inner ReportRepository, d time.Duration) ReportRepository {
	return &boundReports{inner: inner, d: d}
}

type boundReports struct {
	inner ReportRepository
	d     time.Duration
}

func (b *boundReports) Insert(ctx context.Context, r *models.Report) error {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.Insert(ctx, r)
}

func (b *boundReports) GetByCaseID(ctx context.Context, caseID string) (*models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.GetByCaseID(ctx, caseID)
}

func (b *boundReports) GetByID(ctx context.Context, id string) (*models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.GetByID(ctx, id)
}

func (b *boundReports) ListRecent(ctx context.Context, f ReportFilter) ([]models.Report, int, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.ListRecent(ctx, f)
}

func (b *boundReports) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.UpdateStatus(ctx, id, status)
}

func (b *boundReports) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.CountByStatus(ctx)
}

// WithUserTimeout is the same bound for the admin-identity lookups.
func WithUserTimeout(inner UserRepository, d time.Duration) UserRepository {
	return &boundUsers{inner: inner, d: d}
}

type boundUsers struct {
	inner UserRepository
	d     time.Duration
}

func (b *boundUsers) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.GetByEmail(ctx, email)
}

func (b *boundUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.inner.GetByID(ctx, id)
}
