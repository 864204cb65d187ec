package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"regexp"
	"sync"
	"testing"
	"time"

	"civicfix/internal/caseid"
	"civicfix/internal/models"
	"civicfix/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReportRepo is an in-memory ReportRepository that enforces the
// case_id unique constraint the way the database would.
type fakeReportRepo struct {
	mu      sync.Mutex
	seq     int
	byCase  map[string]*models.Report
	byID    map[string]*models.Report
	inserts int
	failAll error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{
		byCase: make(map[string]*models.Report),
		byID:   make(map[string]*models.Report),
	}
}

func (f *fakeReportRepo) Insert(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.failAll != nil {
		return f.failAll
	}
	if _, dup := f.byCase[r.CaseID]; dup {
		return repository.ErrDuplicateCaseID
	}
	f.seq++
	r.ID = fmt.Sprintf("id-%d", f.seq)
	r.Status = models.StatusNew
	r.CreatedAt = time.Now().UTC()
	cp := *r
	f.byCase[r.CaseID] = &cp
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeReportRepo) GetByCaseID(_ context.Context, caseID string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byCase[caseID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReportRepo) GetByID(_ context.Context, id string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReportRepo) ListRecent(_ context.Context, _ repository.ReportFilter) ([]models.Report, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Report, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeReportRepo) UpdateStatus(_ context.Context, id string, status models.Status) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.Status = status
	cp := *r
	return &cp, nil
}

func (f *fakeReportRepo) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[models.Status]int)
	for _, r := range f.byID {
		out[r.Status]++
	}
	return out, nil
}

// fakeMedia records saves and removals without touching the disk.
type fakeMedia struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	saveErr error
}

func (f *fakeMedia) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := fmt.Sprintf("/uploads/fake-%d.jpg", len(f.saved))
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeMedia) Remove(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ref)
	return nil
}

// fixedGenerator returns queued codes, then falls back to the real one.
type fixedGenerator struct {
	mu    sync.Mutex
	queue []string
	real  caseid.Generator
}

func (g *fixedGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) > 0 {
		c := g.queue[0]
		g.queue = g.queue[1:]
		return c
	}
	return g.real.New()
}

func newService(repo repository.ReportRepository, media MediaStore, ids caseid.Generator) *ReportService {
	return NewReportService(repo, media, ids, zerolog.Nop())
}

func TestSubmitCreatesReportWithNewStatus(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newService(repo, &fakeMedia{}, caseid.NewGenerator())

	r, err := svc.Submit(context.Background(), Submission{
		Location:    "Main St & 5th",
		IssueType:   "pothole",
		CitizenName: "  Jo Citizen ",
	})
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^REP\d{4}\d{6}$`), r.CaseID)
	assert.Equal(t, models.StatusNew, r.Status)
	assert.Equal(t, "Jo Citizen", r.CitizenName)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := repo.GetByCaseID(context.Background(), r.CaseID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Main St & 5th", got.Location)
	assert.Equal(t, "pothole", got.IssueType)
	assert.Equal(t, models.StatusNew, got.Status)
}

func TestSubmitRejectsMissingRequiredFields(t *testing.T) {
	for _, in := range []Submission{
		{IssueType: "pothole"},
		{Location: "Main St"},
		{Location: "   ", IssueType: "pothole"},
		{},
	} {
		repo := newFakeReportRepo()
		svc := newService(repo, &fakeMedia{}, caseid.NewGenerator())

		_, err := svc.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Zero(t, repo.inserts, "store must not be touched on validation failure")
	}
}

func TestSubmitRetriesOnCaseIDCollision(t *testing.T) {
	repo := newFakeReportRepo()
	// Seed an existing report that owns the colliding code.
	seeded := &models.Report{CaseID: "REP2025000042", Location: "Elm St", IssueType: "streetlight"}
	require.NoError(t, repo.Insert(context.Background(), seeded))

	ids := &fixedGenerator{queue: []string{"REP2025000042", "REP2025000043"}, real: caseid.NewGenerator()}
	svc := newService(repo, &fakeMedia{}, ids)

	r, err := svc.Submit(context.Background(), Submission{Location: "Oak Ave", IssueType: "pothole"})
	require.NoError(t, err)
	assert.Equal(t, "REP2025000043", r.CaseID)
	assert.Equal(t, 3, repo.inserts) // seed + collision + success
}

func TestSubmitGivesUpAfterBoundedRetries(t *testing.T) {
	repo := newFakeReportRepo()
	taken := "REP2025000099"
	require.NoError(t, repo.Insert(context.Background(), &models.Report{CaseID: taken, Location: "x", IssueType: "y"}))

	ids := &fixedGenerator{queue: []string{taken, taken, taken, taken, taken}, real: caseid.NewGenerator()}
	svc := newService(repo, &fakeMedia{}, ids)

	_, err := svc.Submit(context.Background(), Submission{Location: "Oak Ave", IssueType: "pothole"})
	assert.ErrorIs(t, err, ErrIdentifierExhausted)
	assert.Equal(t, 1+insertAttempts, repo.inserts)
}

func TestSubmitRemovesUploadWhenInsertFails(t *testing.T) {
	repo := newFakeReportRepo()
	repo.failAll = errors.New("connection reset")
	media := &fakeMedia{}
	svc := newService(repo, media, caseid.NewGenerator())

	photo := &multipart.FileHeader{Filename: "pothole.jpg"}
	_, err := svc.Submit(context.Background(), Submission{Location: "Oak Ave", IssueType: "pothole", Photo: photo})
	require.Error(t, err)
	require.Len(t, media.saved, 1)
	assert.Equal(t, media.saved, media.removed)
}

func TestConcurrentSubmissionsGetDistinctCaseIDs(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newService(repo, &fakeMedia{}, caseid.NewGenerator())

	const n = 1000
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), Submission{Location: "Main St", IssueType: "pothole"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, repo.byCase, n, "every submission must end up with a distinct case id")
}

func TestTrackReturnsNarrowProjection(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newService(repo, &fakeMedia{}, caseid.NewGenerator())

	created, err := svc.Submit(context.Background(), Submission{
		Location:    "Main St & 5th",
		IssueType:   "pothole",
		CitizenName: "Jo Citizen",
		Email:       "jo@example.com",
	})
	require.NoError(t, err)

	p, err := svc.Track(context.Background(), created.CaseID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, created.CaseID, p.CaseID)
	assert.Equal(t, models.StatusNew, p.Status)
	assert.Equal(t, "pothole", p.IssueType)
	assert.Equal(t, "Main St & 5th", p.Location)
}

func TestTrackUnknownCodeIsAMissNotAnError(t *testing.T) {
	svc := newService(newFakeReportRepo(), &fakeMedia{}, caseid.NewGenerator())

	p, err := svc.Track(context.Background(), "REP2025999999")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeReportRepo()
	svc := newService(repo, &fakeMedia{}, caseid.NewGenerator())

	created, err := svc.Submit(context.Background(), Submission{Location: "Main St", IssueType: "pothole"})
	require.NoError(t, err)

	t.Run("valid target", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), created.ID, models.StatusUnderReview)
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, updated.Status)
	})

	t.Run("any-to-any is permitted", func(t *testing.T) {
		updated, err := svc.UpdateStatus(context.Background(), created.ID, models.StatusNew)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNew, updated.Status)
	})

	t.Run("value outside the set leaves the row unchanged", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), created.ID, models.Status("ESCALATED"))
		assert.ErrorIs(t, err, ErrInvalidStatus)

		got, err := repo.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNew, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.UpdateStatus(context.Background(), "id-404", models.StatusClosed)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
