package store

import (
	"context"
	"errors"

	"blogd/pkg/domain"
)

// ErrNotFound is returned by lookups when no record matches.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a uniqueness constraint rejects a write. It is
// the storage-level backstop behind the allocator's best-effort slug check
// and the lowered username/email columns.
var ErrConflict = errors.New("constraint conflict")

// BlogFilter narrows ListBlogs. Authorless selects blogs whose author was
// deleted without cascading; it wins over AuthorID.
type BlogFilter struct {
	AuthorID   *int64
	Authorless bool
	CategoryID *int64
	Published  *bool
}

// CommentFilter narrows ListComments.
type CommentFilter struct {
	AuthorID   *int64
	Authorless bool
	BlogID     *int64
	ParentID   *int64
}

// Store defines persistence operations for accounts, blogs, categories and
// comments. Implementations own per-write atomicity: the comment two-phase
// path assignment and the account cascade delete each run inside one
// transaction.
type Store interface {
	// accounts
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)
	GetAccountByID(ctx context.Context, id int64) (domain.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, account domain.Account) error
	// DeleteAccount removes the account. Authored blogs are deleted when
	// deleteBlogs is set, detached (author set to none) otherwise. Authored
	// comments are always detached.
	DeleteAccount(ctx context.Context, id int64, deleteBlogs bool) error

	// blogs
	CreateBlog(ctx context.Context, blog domain.Blog, categoryIDs []int64) (domain.Blog, error)
	GetBlogByID(ctx context.Context, id int64) (domain.Blog, error)
	GetBlogBySlug(ctx context.Context, slug string) (domain.Blog, error)
	ListBlogs(ctx context.Context, filter BlogFilter) ([]domain.Blog, error)
	UpdateBlog(ctx context.Context, blog domain.Blog, categoryIDs []int64) error
	DeleteBlog(ctx context.Context, id int64) error

	// categories
	CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// comments
	// CreateComment inserts the record to obtain an identifier, then writes
	// the materialized path derived from it, both within one transaction.
	CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error)
	GetCommentByID(ctx context.Context, id int64) (domain.Comment, error)
	// ListComments returns comments ordered by (thread_at DESC, path ASC):
	// newest conversation first, pre-order within each conversation.
	ListComments(ctx context.Context, filter CommentFilter) ([]domain.Comment, error)
	UpdateCommentBody(ctx context.Context, id int64, body string) error
	// DeleteComment removes the comment and every descendant whose path is
	// prefixed by the deleted comment's path plus the separator.
	DeleteComment(ctx context.Context, id int64) error

	// HasSlug reports whether a slug is already taken for the given entity
	// type. Only blogs and categories carry slugs.
	HasSlug(ctx context.Context, resource domain.ResourceType, slug string) (bool, error)
}

// SessionStore persists opaque session tokens.
type SessionStore interface {
	NewSession(ctx context.Context, accountID int64) (string, error)
	GetAccountIDByToken(ctx context.Context, token string) (int64, bool, error)
	DeleteSession(ctx context.Context, token string) error
}
