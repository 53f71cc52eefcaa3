package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogd/internal/policy"
	"blogd/internal/store"
	"blogd/pkg/domain"
)

// CategoryCreate carries the fields a category is created from.
type CategoryCreate struct {
	Title       string
	Description string
}

// CategoryUpdate enumerates the mutable category fields.
type CategoryUpdate struct {
	Title          *string
	Description    *string
	RegenerateSlug bool
}

// CreateCategory creates a category. Only admins hold a create grant for
// categories, so the policy check is the whole gate.
func (a *App) CreateCategory(ctx context.Context, actor domain.Actor, req CategoryCreate) (domain.Category, error) {
	if err := a.policy.RequireType(actor, domain.ActionCreate, domain.ResourceCategory); err != nil {
		return domain.Category{}, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Category{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	allocated, err := a.allocateSlug(ctx, domain.ResourceCategory, title)
	if err != nil {
		return domain.Category{}, fmt.Errorf("%w: category slug", ErrUnableToCreate)
	}
	category, err := a.store.CreateCategory(ctx, domain.Category{
		Title:       title,
		Slug:        allocated,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Category{}, fmt.Errorf("%w: category", ErrUnableToCreate)
		}
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// GetCategory returns a category by ID. Categories are readable by everyone.
func (a *App) GetCategory(ctx context.Context, actor domain.Actor, id int64) (domain.Category, error) {
	category, err := a.store.GetCategoryByID(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := a.policy.Require(actor, domain.ActionRead, policy.ForCategory(category)); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// GetCategoryBySlug returns a category looked up by slug.
func (a *App) GetCategoryBySlug(ctx context.Context, actor domain.Actor, categorySlug string) (domain.Category, error) {
	category, err := a.store.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return domain.Category{}, err
	}
	if err := a.policy.Require(actor, domain.ActionRead, policy.ForCategory(category)); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// ListCategories returns every category.
func (a *App) ListCategories(ctx context.Context, actor domain.Actor) ([]domain.Category, error) {
	if err := a.policy.RequireType(actor, domain.ActionRead, domain.ResourceCategory); err != nil {
		return nil, err
	}
	return a.store.ListCategories(ctx)
}

// UpdateCategory applies the given field changes to a category.
func (a *App) UpdateCategory(ctx context.Context, actor domain.Actor, id int64, update CategoryUpdate) (domain.Category, error) {
	category, err := a.store.GetCategoryByID(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := a.policy.Require(actor, domain.ActionEdit, policy.ForCategory(category)); err != nil {
		return domain.Category{}, err
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return domain.Category{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		category.Title = title
	}
	if update.RegenerateSlug {
		allocated, err := a.allocateSlug(ctx, domain.ResourceCategory, category.Title)
		if err != nil {
			return domain.Category{}, fmt.Errorf("%w: category slug", ErrUnableToUpdate)
		}
		category.Slug = allocated
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	now := time.Now().UTC()
	category.UpdatedAt = &now

	if err := a.store.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Category{}, fmt.Errorf("%w: category", ErrUnableToUpdate)
		}
		return domain.Category{}, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// DeleteCategory removes a category, detaching it from any blogs.
func (a *App) DeleteCategory(ctx context.Context, actor domain.Actor, id int64) error {
	category, err := a.store.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.policy.Require(actor, domain.ActionDelete, policy.ForCategory(category)); err != nil {
		return err
	}
	if err := a.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("%w: category", ErrUnableToDelete)
	}
	return nil
}
