package db

import "time"

// 企業区分。
const (
	CompanyTypeMNC           = "MNC"
	CompanyTypeGlobalStartup = "Global Startup"
	CompanyTypeIndianStartup = "Indian Startup"
)

// Company は companies テーブルの行。
type Company struct {
	ID            string
	Name          string
	CompanyType   string
	Description   string
	LogoURL       string
	CareerPageURL string
	CreatedAt     time.Time
}

// Job は jobs テーブルの行に企業名と企業区分を結合したもの。
type Job struct {
	ID             string
	CompanyID      string
	CompanyName    string
	CompanyType    string
	Title          string
	Segment        string
	CareerPageLink string
	CreatedBy      string
	CreatedAt      time.Time
}

// SocialPost は social_posts テーブルの行。
type SocialPost struct {
	ID        string
	Platform  string
	Author    string
	Content   string
	URL       string
	CompanyID string
	PostedAt  *time.Time
	CreatedAt time.Time
}
