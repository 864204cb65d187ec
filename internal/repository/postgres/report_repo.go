package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"civicfix/internal/models"
	"civicfix/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type ReportRepo struct{ db *pgxpool.Pool }

func NewReportRepo(db *pgxpool.Pool) *ReportRepo { return &ReportRepo{db: db} }

const reportCols = `id, case_id, citizen_name, email, phone, COALESCE(image_path, ''), location, description, issue_type, status, created_at`

func scanReport(row pgx.Row) (*models.Report, error) {
	var r models.Report
	err := row.Scan(
		&r.ID, &r.CaseID, &r.CitizenName, &r.Email, &r.Phone, &r.ImagePath,
		&r.Location, &r.Description, &r.IssueType, &r.Status, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Insert creates the report row. Status is forced to NEW and created_at is
// assigned by the database. A unique-key violation on case_id comes back as
// repository.ErrDuplicateCaseID so the caller can regenerate and retry.
func (p *ReportRepo) Insert(ctx context.Context, r *models.Report) error {
	err := p.db.QueryRow(ctx, `
		INSERT INTO reports (case_id, citizen_name, email, phone, image_path, location, description, issue_type, status)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9)
		RETURNING id, status, created_at
	`,
		r.CaseID, r.CitizenName, r.Email, r.Phone, r.ImagePath,
		r.Location, r.Description, r.IssueType, models.StatusNew,
	).Scan(&r.ID, &r.Status, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateCaseID
		}
		return err
	}
	return nil
}

func (p *ReportRepo) GetByCaseID(ctx context.Context, caseID string) (*models.Report, error) {
	return scanReport(p.db.QueryRow(ctx, `
		SELECT `+reportCols+` FROM reports WHERE case_id = $1
	`, caseID))
}

func (p *ReportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	return scanReport(p.db.QueryRow(ctx, `
		SELECT `+reportCols+` FROM reports WHERE id = $1
	`, id))
}

// ListRecent returns a newest-first page plus the total count for the same
// filter set. A best-effort snapshot, not a consistent read.
func (p *ReportRepo) ListRecent(ctx context.Context, f repository.ReportFilter) ([]models.Report, int, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	whereSQL, args := buildReportWhere(f)

	var total int
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM reports `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `
		SELECT ` + reportCols + `
		FROM reports
		` + whereSQL + `
		ORDER BY created_at DESC
		LIMIT $` + itoa(len(args)+1) + ` OFFSET $` + itoa(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(
			&r.ID, &r.CaseID, &r.CitizenName, &r.Email, &r.Phone, &r.ImagePath,
			&r.Location, &r.Description, &r.IssueType, &r.Status, &r.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// UpdateStatus applies the one permitted post-creation mutation atomically.
func (p *ReportRepo) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Report, error) {
	r, err := scanReport(p.db.QueryRow(ctx, `
		UPDATE reports SET status = $1 WHERE id = $2
		RETURNING `+reportCols+`
	`, status, id))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

// CountByStatus feeds the admin summary counters.
func (p *ReportRepo) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := p.db.Query(ctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.Status]int)
	for rows.Next() {
		var s models.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func buildReportWhere(f repository.ReportFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if q := strings.TrimSpace(f.Q); q != "" {
		p := "%" + q + "%"
		args = append(args, p, p)
		clauses = append(clauses, "(location ILIKE $"+itoa(len(args)-1)+" OR description ILIKE $"+itoa(len(args))+")")
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		args = append(args, s)
		clauses = append(clauses, "status = $"+itoa(len(args)))
	}
	if it := strings.TrimSpace(f.IssueType); it != "" {
		args = append(args, it)
		clauses = append(clauses, "issue_type = $"+itoa(len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func itoa(i int) string { return strconv.Itoa(i) }
