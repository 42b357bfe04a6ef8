package db

import (
	"context"
	"database/sql"
	"time"
)

const socialPostColumns = `id, platform, author, content, url, company_id, posted_at, created_at`

// InsertSocialPostParams はSNS投稿作成のパラメータ。
type InsertSocialPostParams struct {
	ID        string
	Platform  string
	Author    string
	Content   string
	URL       string
	CompanyID string
	PostedAt  *time.Time
	CreatedAt time.Time
}

const insertSocialPostIgnore = `INSERT INTO social_posts (` + socialPostColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO NOTHING`

// InsertSocialPostIgnore はSNS投稿を作成し、挿入件数を返す。URLが重複する場合は0件。
func (q *Queries) InsertSocialPostIgnore(ctx context.Context, arg InsertSocialPostParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertSocialPostIgnore,
		arg.ID, arg.Platform, arg.Author, arg.Content, arg.URL,
		nullString(arg.CompanyID), nullMillis(arg.PostedAt), toMillis(arg.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getSocialPostByID = `SELECT ` + socialPostColumns + ` FROM social_posts WHERE id = ?`

// GetSocialPostByID はIDでSNS投稿を取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetSocialPostByID(ctx context.Context, id string) (SocialPost, error) {
	return scanSocialPost(q.db.QueryRowContext(ctx, getSocialPostByID, id))
}

// ListSocialPostsParams はSNS投稿一覧のパラメータ。空文字列の条件は無視する。
type ListSocialPostsParams struct {
	Platform  string
	CompanyID string
	Limit     int
	Offset    int
}

const listSocialPosts = `SELECT ` + socialPostColumns + ` FROM social_posts
WHERE (? = '' OR platform = ?) AND (? = '' OR company_id = ?)
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?`

// ListSocialPosts はSNS投稿を新しい順に取得する。
func (q *Queries) ListSocialPosts(ctx context.Context, arg ListSocialPostsParams) ([]SocialPost, error) {
	rows, err := q.db.QueryContext(ctx, listSocialPosts,
		arg.Platform, arg.Platform, arg.CompanyID, arg.CompanyID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []SocialPost
	for rows.Next() {
		p, err := scanSocialPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const countSocialPosts = `SELECT COUNT(*) FROM social_posts
WHERE (? = '' OR platform = ?) AND (? = '' OR company_id = ?)`

// CountSocialPosts は条件に一致するSNS投稿数を返す。
func (q *Queries) CountSocialPosts(ctx context.Context, platform, companyID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSocialPosts, platform, platform, companyID, companyID).Scan(&n)
	return n, err
}

func scanSocialPost(row rowScanner) (SocialPost, error) {
	var (
		p         SocialPost
		companyID sql.NullString
		postedAt  sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&p.ID, &p.Platform, &p.Author, &p.Content, &p.URL, &companyID, &postedAt, &createdAt)
	p.CompanyID = companyID.String
	if postedAt.Valid {
		t := fromMillis(postedAt.Int64)
		p.PostedAt = &t
	}
	p.CreatedAt = fromMillis(createdAt)
	return p, err
}
