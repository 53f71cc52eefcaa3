package domain

import (
	"strings"
	"time"
)

// Action is a permission verb evaluated against a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	// ActionManage is the admin wildcard covering every other action.
	ActionManage Action = "manage"
)

// ResourceType identifies a kind of persisted entity.
type ResourceType string

const (
	ResourceAccount  ResourceType = "account"
	ResourceBlog     ResourceType = "blog"
	ResourceCategory ResourceType = "category"
	ResourceComment  ResourceType = "comment"
)

// Account is a registered identity. Username and email are unique
// case-insensitively; they are stored lowercased so the database constraint
// enforces that directly.
type Account struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Display      string     `json:"display"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	About        string     `json:"about,omitempty"`
	Admin        bool       `json:"admin"`
	Confirmed    bool       `json:"confirmed"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	SeenAt       *time.Time `json:"seenAt,omitempty"`
}

// Actor is the identity on whose behalf an action is evaluated. The zero
// value (Account == nil) is the anonymous actor.
type Actor struct {
	Account *Account

	// AlwaysConfirmed mirrors the deployment override that treats every
	// authenticated account as confirmed.
	AlwaysConfirmed bool
}

// Anonymous reports whether no account is attached to the actor.
func (a Actor) Anonymous() bool { return a.Account == nil }

// Admin reports whether the actor is an authenticated admin.
func (a Actor) Admin() bool { return a.Account != nil && a.Account.Admin }

// Confirmed reports whether the actor's email has been confirmed, honouring
// the always-confirmed override.
func (a Actor) Confirmed() bool {
	if a.Account == nil {
		return false
	}
	return a.AlwaysConfirmed || a.Account.Confirmed
}

// ID returns the actor's account ID, or 0 for anonymous.
func (a Actor) ID() int64 {
	if a.Account == nil {
		return 0
	}
	return a.Account.ID
}

// Blog is an authored post. AuthorID is nil when the author account was
// deleted without cascading.
type Blog struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Body        string     `json:"body"`
	Published   bool       `json:"published"`
	Comment     bool       `json:"comment"`
	AuthorID    *int64     `json:"authorId,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Category groups blogs. Admin-managed, no ownership.
type Category struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// PathSegmentDigits is the fixed width of one materialized-path segment.
const PathSegmentDigits = 6

// Comment is a reply attached to a blog, nested via a materialized path of
// fixed-width zero-padded ID segments joined by ".".
type Comment struct {
	ID        int64      `json:"id"`
	Body      string     `json:"body"`
	Path      string     `json:"path"`
	AuthorID  *int64     `json:"authorId,omitempty"`
	BlogID    int64      `json:"blogId"`
	ParentID  *int64     `json:"parentId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	ThreadAt  time.Time  `json:"threadAt"`
}

// Level is the nesting depth derived from the path; a root comment is 0.
func (c Comment) Level() int {
	return len(c.Path)/PathSegmentDigits - 1
}

// Descendant reports whether other sits below c in the same thread.
func (c Comment) Descendant(other Comment) bool {
	return strings.HasPrefix(other.Path, c.Path+".")
}
