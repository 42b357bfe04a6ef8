package db

import (
	"context"
	"time"
)

const companyColumns = `id, name, company_type, description, logo_url, career_page_url, created_at`

// CreateCompanyParams は企業作成のパラメータ。
type CreateCompanyParams struct {
	ID            string
	Name          string
	CompanyType   string
	Description   string
	LogoURL       string
	CareerPageURL string
	CreatedAt     time.Time
}

const insertCompanyIgnore = `INSERT INTO companies (` + companyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (name) DO NOTHING`

// InsertCompanyIgnore は企業を作成し、挿入件数を返す。名前が重複する場合は0件。
func (q *Queries) InsertCompanyIgnore(ctx context.Context, arg CreateCompanyParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertCompanyIgnore,
		arg.ID, arg.Name, arg.CompanyType, arg.Description, arg.LogoURL, arg.CareerPageURL, toMillis(arg.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getCompanyByID = `SELECT ` + companyColumns + ` FROM companies WHERE id = ?`

// GetCompanyByID はIDで企業を取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetCompanyByID(ctx context.Context, id string) (Company, error) {
	return scanCompany(q.db.QueryRowContext(ctx, getCompanyByID, id))
}

const getCompanyByName = `SELECT ` + companyColumns + ` FROM companies WHERE name = ?`

// GetCompanyByName は名前で企業を取得する。
func (q *Queries) GetCompanyByName(ctx context.Context, name string) (Company, error) {
	return scanCompany(q.db.QueryRowContext(ctx, getCompanyByName, name))
}

// ListCompaniesParams は企業一覧のパラメータ。空文字列の条件は無視する。
type ListCompaniesParams struct {
	CompanyType string
	Limit       int
	Offset      int
}

const listCompanies = `SELECT ` + companyColumns + ` FROM companies
WHERE (? = '' OR company_type = ?)
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?`

// ListCompanies は企業を新しい順に取得する。
func (q *Queries) ListCompanies(ctx context.Context, arg ListCompaniesParams) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx, listCompanies, arg.CompanyType, arg.CompanyType, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const countCompanies = `SELECT COUNT(*) FROM companies WHERE (? = '' OR company_type = ?)`

// CountCompanies は条件に一致する企業数を返す。
func (q *Queries) CountCompanies(ctx context.Context, companyType string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCompanies, companyType, companyType).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (Company, error) {
	var (
		c         Company
		createdAt int64
	)
	err := row.Scan(&c.ID, &c.Name, &c.CompanyType, &c.Description, &c.LogoURL, &c.CareerPageURL, &createdAt)
	c.CreatedAt = fromMillis(createdAt)
	return c, err
}
