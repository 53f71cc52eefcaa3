package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blogd/internal/policy"
	"blogd/internal/store"
	"blogd/pkg/domain"
)

// CommentCreate carries the fields a comment is created from. At least one
// of BlogID and ParentID must be set; when both are, the parent wins.
type CommentCreate struct {
	Body     string
	BlogID   *int64
	ParentID *int64
}

// ListCommentsRequest narrows comment listings. Authorless selects comments
// whose author account was deleted.
type ListCommentsRequest struct {
	AuthorID   *int64
	Authorless bool
	BlogID     *int64
	ParentID   *int64
}

// CreateComment attaches a comment to a blog or as a reply to a parent. A
// reply inherits the parent's blog and thread anchor, so a whole conversation
// shares one thread_at and sorts as a unit. The store assigns the
// materialized path in the same transaction as the insert.
func (a *App) CreateComment(ctx context.Context, actor domain.Actor, req CommentCreate) (domain.Comment, error) {
	if actor.Anonymous() || !actor.Confirmed() {
		return domain.Comment{}, fmt.Errorf("%w: commenting requires a confirmed account", ErrValidation)
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return domain.Comment{}, fmt.Errorf("%w: body is required", ErrValidation)
	}
	if req.BlogID == nil && req.ParentID == nil {
		return domain.Comment{}, fmt.Errorf("%w: a blog or a parent comment is required", ErrValidation)
	}

	now := time.Now().UTC()
	authorID := actor.ID()
	comment := domain.Comment{
		Body:      body,
		AuthorID:  &authorID,
		CreatedAt: now,
		ThreadAt:  now,
	}

	if req.ParentID != nil {
		parent, err := a.store.GetCommentByID(ctx, *req.ParentID)
		if err != nil {
			return domain.Comment{}, err
		}
		comment.BlogID = parent.BlogID
		comment.ParentID = &parent.ID
		comment.ThreadAt = parent.ThreadAt
	} else {
		blog, err := a.store.GetBlogByID(ctx, *req.BlogID)
		if err != nil {
			return domain.Comment{}, err
		}
		if !blog.Comment {
			return domain.Comment{}, fmt.Errorf("%w: blog does not allow comments", ErrValidation)
		}
		comment.BlogID = blog.ID
	}

	created, err := a.store.CreateComment(ctx, comment)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("%w: comment", ErrUnableToCreate)
	}
	return created, nil
}

// GetComment returns a comment by ID.
func (a *App) GetComment(ctx context.Context, id int64) (domain.Comment, error) {
	return a.store.GetCommentByID(ctx, id)
}

// ListComments returns the comments matching the request, ordered newest
// conversation first and in thread order within each conversation. Comments
// are readable wherever their blog is, so no per-comment gate applies here;
// callers list by blog after resolving the blog through the policy.
func (a *App) ListComments(ctx context.Context, req ListCommentsRequest) ([]domain.Comment, error) {
	comments, err := a.store.ListComments(ctx, store.CommentFilter{
		AuthorID:   req.AuthorID,
		Authorless: req.Authorless,
		BlogID:     req.BlogID,
		ParentID:   req.ParentID,
	})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// UpdateComment replaces a comment's body. Only the author or an admin may
// edit.
func (a *App) UpdateComment(ctx context.Context, actor domain.Actor, id int64, body string) (domain.Comment, error) {
	comment, err := a.store.GetCommentByID(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	if err := a.policy.Require(actor, domain.ActionEdit, policy.ForComment(comment)); err != nil {
		return domain.Comment{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Comment{}, fmt.Errorf("%w: body is required", ErrValidation)
	}
	if err := a.store.UpdateCommentBody(ctx, id, body); err != nil {
		return domain.Comment{}, fmt.Errorf("%w: comment", ErrUnableToUpdate)
	}
	return a.store.GetCommentByID(ctx, id)
}

// DeleteComment removes a comment and every descendant reply.
func (a *App) DeleteComment(ctx context.Context, actor domain.Actor, id int64) error {
	comment, err := a.store.GetCommentByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.policy.Require(actor, domain.ActionDelete, policy.ForComment(comment)); err != nil {
		return err
	}
	if err := a.store.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("%w: comment", ErrUnableToDelete)
	}
	return nil
}
