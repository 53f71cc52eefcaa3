package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogd/internal/policy"
	"blogd/internal/slug"
	"blogd/internal/store"
	"blogd/pkg/domain"
)

// BlogCreate carries the fields a blog is created from. The slug is derived
// from the title, never supplied.
type BlogCreate struct {
	Title       string
	Description string
	Body        string
	Published   bool
	Comment     bool
	CategoryIDs []int64
}

// BlogUpdate enumerates the mutable blog fields. Nil fields are left
// untouched. The slug is immutable unless RegenerateSlug forces a new
// allocation from the current title.
type BlogUpdate struct {
	Title          *string
	Description    *string
	Body           *string
	Published      *bool
	Comment        *bool
	CategoryIDs    *[]int64
	RegenerateSlug bool
}

// ListBlogsRequest narrows blog listings. Authorless selects blogs whose
// author account was deleted without cascading.
type ListBlogsRequest struct {
	AuthorID   *int64
	Authorless bool
	CategoryID *int64
	Published  *bool
}

// ArchiveMonth groups the blogs of one calendar month.
type ArchiveMonth struct {
	Month time.Month    `json:"month"`
	Blogs []domain.Blog `json:"blogs"`
}

// ArchiveYear groups the archive months of one year, newest month first.
type ArchiveYear struct {
	Year   int            `json:"year"`
	Months []ArchiveMonth `json:"months"`
}

// CreateBlog allocates a slug from the title and creates the blog owned by
// the actor.
func (a *App) CreateBlog(ctx context.Context, actor domain.Actor, req BlogCreate) (domain.Blog, error) {
	if err := a.policy.RequireType(actor, domain.ActionCreate, domain.ResourceBlog); err != nil {
		return domain.Blog{}, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Blog{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	allocated, err := a.allocateSlug(ctx, domain.ResourceBlog, title)
	if err != nil {
		return domain.Blog{}, fmt.Errorf("%w: blog slug", ErrUnableToCreate)
	}
	authorID := actor.ID()
	blog, err := a.store.CreateBlog(ctx, domain.Blog{
		Title:       title,
		Slug:        allocated,
		Description: req.Description,
		Body:        req.Body,
		Published:   req.Published,
		Comment:     req.Comment,
		AuthorID:    &authorID,
		CreatedAt:   time.Now().UTC(),
	}, req.CategoryIDs)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Blog{}, fmt.Errorf("%w: blog", ErrUnableToCreate)
		}
		return domain.Blog{}, fmt.Errorf("create blog: %w", err)
	}
	return blog, nil
}

// GetBlog returns a blog by ID if the actor may read it.
func (a *App) GetBlog(ctx context.Context, actor domain.Actor, id int64) (domain.Blog, error) {
	blog, err := a.store.GetBlogByID(ctx, id)
	if err != nil {
		return domain.Blog{}, err
	}
	if err := a.policy.Require(actor, domain.ActionRead, policy.ForBlog(blog)); err != nil {
		return domain.Blog{}, err
	}
	return blog, nil
}

// GetBlogBySlug returns a blog looked up by slug if the actor may read it.
func (a *App) GetBlogBySlug(ctx context.Context, actor domain.Actor, blogSlug string) (domain.Blog, error) {
	blog, err := a.store.GetBlogBySlug(ctx, blogSlug)
	if err != nil {
		return domain.Blog{}, err
	}
	if err := a.policy.Require(actor, domain.ActionRead, policy.ForBlog(blog)); err != nil {
		return domain.Blog{}, err
	}
	return blog, nil
}

// ListBlogs returns the blogs matching the request, narrowed to the subset
// the actor may read: everything for admins, published plus own for others.
func (a *App) ListBlogs(ctx context.Context, actor domain.Actor, req ListBlogsRequest) ([]domain.Blog, error) {
	decision := a.policy.EvaluateType(actor, domain.ActionRead, domain.ResourceBlog)
	if !decision.Allowed {
		return nil, policy.ErrForbidden
	}
	blogs, err := a.store.ListBlogs(ctx, store.BlogFilter{
		AuthorID:   req.AuthorID,
		Authorless: req.Authorless,
		CategoryID: req.CategoryID,
		Published:  req.Published,
	})
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	if decision.Scope.All {
		return blogs, nil
	}
	visible := blogs[:0]
	for _, blog := range blogs {
		if decision.Scope.Matches(policy.ForBlog(blog)) {
			visible = append(visible, blog)
		}
	}
	return visible, nil
}

// ArchivedBlogs groups the blogs the actor may read by year and month of
// creation, newest first within and across groups.
func (a *App) ArchivedBlogs(ctx context.Context, actor domain.Actor, published *bool) ([]ArchiveYear, error) {
	blogs, err := a.ListBlogs(ctx, actor, ListBlogsRequest{Published: published})
	if err != nil {
		return nil, err
	}
	var years []ArchiveYear
	for _, blog := range blogs {
		year, month := blog.CreatedAt.Year(), blog.CreatedAt.Month()
		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, ArchiveYear{Year: year})
		}
		y := &years[len(years)-1]
		if len(y.Months) == 0 || y.Months[len(y.Months)-1].Month != month {
			y.Months = append(y.Months, ArchiveMonth{Month: month})
		}
		m := &y.Months[len(y.Months)-1]
		m.Blogs = append(m.Blogs, blog)
	}
	return years, nil
}

// UpdateBlog applies the given field changes to a blog owned by the actor
// or, for admins, any blog.
func (a *App) UpdateBlog(ctx context.Context, actor domain.Actor, id int64, update BlogUpdate) (domain.Blog, error) {
	blog, err := a.store.GetBlogByID(ctx, id)
	if err != nil {
		return domain.Blog{}, err
	}
	if err := a.policy.Require(actor, domain.ActionEdit, policy.ForBlog(blog)); err != nil {
		return domain.Blog{}, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return domain.Blog{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		blog.Title = title
	}
	if update.RegenerateSlug {
		allocated, err := a.allocateSlug(ctx, domain.ResourceBlog, blog.Title)
		if err != nil {
			return domain.Blog{}, fmt.Errorf("%w: blog slug", ErrUnableToUpdate)
		}
		blog.Slug = allocated
	}
	if update.Description != nil {
		blog.Description = *update.Description
	}
	if update.Body != nil {
		blog.Body = *update.Body
	}
	if update.Published != nil {
		blog.Published = *update.Published
	}
	if update.Comment != nil {
		blog.Comment = *update.Comment
	}
	categoryIDs := categoryIDsOf(blog)
	if update.CategoryIDs != nil {
		categoryIDs = *update.CategoryIDs
	}
	now := time.Now().UTC()
	blog.UpdatedAt = &now

	if err := a.store.UpdateBlog(ctx, blog, categoryIDs); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Blog{}, fmt.Errorf("%w: blog", ErrUnableToUpdate)
		}
		return domain.Blog{}, fmt.Errorf("update blog: %w", err)
	}
	return a.store.GetBlogByID(ctx, id)
}

// DeleteBlog removes a blog and its comment threads.
func (a *App) DeleteBlog(ctx context.Context, actor domain.Actor, id int64) error {
	blog, err := a.store.GetBlogByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.policy.Require(actor, domain.ActionDelete, policy.ForBlog(blog)); err != nil {
		return err
	}
	if err := a.store.DeleteBlog(ctx, id); err != nil {
		return fmt.Errorf("%w: blog", ErrUnableToDelete)
	}
	return nil
}

func (a *App) allocateSlug(ctx context.Context, resource domain.ResourceType, text string) (string, error) {
	return slug.Unique(ctx, func(ctx context.Context, candidate string) (bool, error) {
		return a.store.HasSlug(ctx, resource, candidate)
	}, text, maxSlugLength)
}

func categoryIDsOf(blog domain.Blog) []int64 {
	ids := make([]int64, 0, len(blog.Categories))
	for _, category := range blog.Categories {
		ids = append(ids, category.ID)
	}
	return ids
}
