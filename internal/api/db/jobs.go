package db

import (
	"context"
	"time"
)

const jobColumns = `j.id, j.company_id, c.name, c.company_type, j.title, j.segment, j.career_page_link, j.created_by, j.created_at`

// InsertJobParams は求人作成のパラメータ。
type InsertJobParams struct {
	ID             string
	CompanyID      string
	Title          string
	Segment        string
	CareerPageLink string
	CreatedBy      string
	CreatedAt      time.Time
}

const insertJobIgnore = `INSERT INTO jobs (id, company_id, title, segment, career_page_link, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (company_id, title, career_page_link) DO NOTHING`

// InsertJobIgnore は求人を作成し、挿入件数を返す。同じ企業・職種・URLの求人が既にある場合は0件。
func (q *Queries) InsertJobIgnore(ctx context.Context, arg InsertJobParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertJobIgnore,
		arg.ID, arg.CompanyID, arg.Title, arg.Segment, arg.CareerPageLink, arg.CreatedBy, toMillis(arg.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getJobByID = `SELECT ` + jobColumns + ` FROM jobs j JOIN companies c ON c.id = j.company_id WHERE j.id = ?`

// GetJobByID はIDで求人を取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetJobByID(ctx context.Context, id string) (Job, error) {
	return scanJob(q.db.QueryRowContext(ctx, getJobByID, id))
}

// ListJobsParams は求人一覧のパラメータ。空文字列の条件は無視する。
type ListJobsParams struct {
	CompanyID string
	Segment   string
	Limit     int
	Offset    int
}

const listJobs = `SELECT ` + jobColumns + ` FROM jobs j JOIN companies c ON c.id = j.company_id
WHERE (? = '' OR j.company_id = ?) AND (? = '' OR j.segment = ?)
ORDER BY j.created_at DESC, j.id
LIMIT ? OFFSET ?`

// ListJobs は求人を新しい順に取得する。
func (q *Queries) ListJobs(ctx context.Context, arg ListJobsParams) ([]Job, error) {
	rows, err := q.db.QueryContext(ctx, listJobs,
		arg.CompanyID, arg.CompanyID, arg.Segment, arg.Segment, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, j)
	}
	return items, rows.Err()
}

const countJobs = `SELECT COUNT(*) FROM jobs j
WHERE (? = '' OR j.company_id = ?) AND (? = '' OR j.segment = ?)`

// CountJobs は条件に一致する求人数を返す。
func (q *Queries) CountJobs(ctx context.Context, companyID, segment string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countJobs, companyID, companyID, segment, segment).Scan(&n)
	return n, err
}

func scanJob(row rowScanner) (Job, error) {
	var (
		j         Job
		createdAt int64
	)
	err := row.Scan(&j.ID, &j.CompanyID, &j.CompanyName, &j.CompanyType, &j.Title, &j.Segment,
		&j.CareerPageLink, &j.CreatedBy, &createdAt)
	j.CreatedAt = fromMillis(createdAt)
	return j, err
}
