package store

import (
	"time"

	"blogd/pkg/domain"
)

// GORM models used for persistence. Username, email and slugs carry unique
// indexes as the final backstop behind the application-level checks.
type AccountModel struct {
	ID        int64     `gorm:"primaryKey"`
	Username  string    `gorm:"size:64;uniqueIndex;not null"`
	Display   string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:120;uniqueIndex;not null"`
	Password  string    `gorm:"size:255;not null"`
	About     string    `gorm:"size:300"`
	Admin     bool      `gorm:"not null;default:false"`
	Confirmed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
	SeenAt    *time.Time
}

func (AccountModel) TableName() string { return "accounts" }

type BlogModel struct {
	ID          int64           `gorm:"primaryKey"`
	Title       string          `gorm:"size:100;index;not null"`
	Slug        string          `gorm:"size:200;uniqueIndex;not null"`
	Description string          `gorm:"size:150"`
	Body        string          `gorm:"type:text;not null"`
	Published   bool            `gorm:"not null;default:false"`
	Comment     bool            `gorm:"not null;default:false"`
	AuthorID    *int64          `gorm:"index"`
	Categories  []CategoryModel `gorm:"many2many:blog_categories"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   *time.Time
}

func (BlogModel) TableName() string { return "blogs" }

type CategoryModel struct {
	ID          int64       `gorm:"primaryKey"`
	Title       string      `gorm:"size:100;uniqueIndex;not null"`
	Slug        string      `gorm:"size:200;uniqueIndex;not null"`
	Description string      `gorm:"size:150;not null"`
	Blogs       []BlogModel `gorm:"many2many:blog_categories"`
	CreatedAt   time.Time   `gorm:"not null"`
	UpdatedAt   *time.Time
}

func (CategoryModel) TableName() string { return "categories" }

type CommentModel struct {
	ID        int64     `gorm:"primaryKey"`
	Body      string    `gorm:"size:200;not null"`
	Path      string    `gorm:"type:text;index"`
	AuthorID  *int64    `gorm:"index"`
	BlogID    int64     `gorm:"not null;index"`
	ParentID  *int64    `gorm:"index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt *time.Time
	ThreadAt  time.Time `gorm:"not null;index"`
}

func (CommentModel) TableName() string { return "comments" }

func nowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel{
		ID:        a.ID,
		Username:  a.Username,
		Display:   a.Display,
		Email:     a.Email,
		Password:  a.PasswordHash,
		About:     a.About,
		Admin:     a.Admin,
		Confirmed: a.Confirmed,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		SeenAt:    a.SeenAt,
	}
}

func accountFromModel(m AccountModel) domain.Account {
	return domain.Account{
		ID:           m.ID,
		Username:     m.Username,
		Display:      m.Display,
		Email:        m.Email,
		PasswordHash: m.Password,
		About:        m.About,
		Admin:        m.Admin,
		Confirmed:    m.Confirmed,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		SeenAt:       m.SeenAt,
	}
}

func blogToModel(b domain.Blog) BlogModel {
	return BlogModel{
		ID:          b.ID,
		Title:       b.Title,
		Slug:        b.Slug,
		Description: b.Description,
		Body:        b.Body,
		Published:   b.Published,
		Comment:     b.Comment,
		AuthorID:    b.AuthorID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func blogFromModel(m BlogModel) domain.Blog {
	blog := domain.Blog{
		ID:          m.ID,
		Title:       m.Title,
		Slug:        m.Slug,
		Description: m.Description,
		Body:        m.Body,
		Published:   m.Published,
		Comment:     m.Comment,
		AuthorID:    m.AuthorID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, c := range m.Categories {
		blog.Categories = append(blog.Categories, categoryFromModel(c))
	}
	return blog
}

func categoryToModel(c domain.Category) CategoryModel {
	return CategoryModel{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func categoryFromModel(m CategoryModel) domain.Category {
	return domain.Category{
		ID:          m.ID,
		Title:       m.Title,
		Slug:        m.Slug,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func commentToModel(c domain.Comment) CommentModel {
	return CommentModel{
		ID:        c.ID,
		Body:      c.Body,
		Path:      c.Path,
		AuthorID:  c.AuthorID,
		BlogID:    c.BlogID,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ThreadAt:  c.ThreadAt,
	}
}

func commentFromModel(m CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		Body:      m.Body,
		Path:      m.Path,
		AuthorID:  m.AuthorID,
		BlogID:    m.BlogID,
		ParentID:  m.ParentID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		ThreadAt:  m.ThreadAt,
	}
}
