package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"blogd/pkg/domain"
)

// MemoryStore keeps records in-process. It mirrors GormStore semantics,
// including uniqueness conflicts and comment path assignment, and backs the
// test suite.
type MemoryStore struct {
	mu         sync.RWMutex
	accounts   map[int64]domain.Account
	blogs      map[int64]domain.Blog
	categories map[int64]domain.Category
	comments   map[int64]domain.Comment
	blogCats   map[int64][]int64 // blog ID -> category IDs
	nextID     map[string]int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[int64]domain.Account),
		blogs:      make(map[int64]domain.Blog),
		categories: make(map[int64]domain.Category),
		comments:   make(map[int64]domain.Comment),
		blogCats:   make(map[int64][]int64),
		nextID:     make(map[string]int64),
	}
}

func (m *MemoryStore) allocID(kind string) int64 {
	m.nextID[kind]++
	return m.nextID[kind]
}

// accounts

func (m *MemoryStore) CreateAccount(_ context.Context, account domain.Account) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Username, account.Username) || strings.EqualFold(existing.Email, account.Email) {
			return domain.Account{}, ErrConflict
		}
	}
	account.ID = m.allocID("account")
	m.accounts[account.ID] = account
	return account, nil
}

func (m *MemoryStore) GetAccountByID(_ context.Context, id int64) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, ErrNotFound
	}
	return account, nil
}

func (m *MemoryStore) GetAccountByUsername(_ context.Context, username string) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if strings.EqualFold(account.Username, username) {
			return account, nil
		}
	}
	return domain.Account{}, ErrNotFound
}

func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, account := range m.accounts {
		if strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}
	return domain.Account{}, ErrNotFound
}

func (m *MemoryStore) ListAccounts(_ context.Context) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		res = append(res, account)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *MemoryStore) UpdateAccount(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.accounts {
		if id == account.ID {
			continue
		}
		if strings.EqualFold(existing.Username, account.Username) || strings.EqualFold(existing.Email, account.Email) {
			return ErrConflict
		}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MemoryStore) DeleteAccount(_ context.Context, id int64, deleteBlogs bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return ErrNotFound
	}
	for blogID, blog := range m.blogs {
		if blog.AuthorID == nil || *blog.AuthorID != id {
			continue
		}
		if deleteBlogs {
			m.deleteBlogLocked(blogID)
		} else {
			blog.AuthorID = nil
			m.blogs[blogID] = blog
		}
	}
	for commentID, comment := range m.comments {
		if comment.AuthorID != nil && *comment.AuthorID == id {
			comment.AuthorID = nil
			m.comments[commentID] = comment
		}
	}
	delete(m.accounts, id)
	return nil
}

// blogs

func (m *MemoryStore) CreateBlog(_ context.Context, blog domain.Blog, categoryIDs []int64) (domain.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.blogs {
		if strings.EqualFold(existing.Slug, blog.Slug) {
			return domain.Blog{}, ErrConflict
		}
	}
	for _, categoryID := range categoryIDs {
		if _, ok := m.categories[categoryID]; !ok {
			return domain.Blog{}, ErrNotFound
		}
	}
	blog.ID = m.allocID("blog")
	m.blogs[blog.ID] = blog
	m.blogCats[blog.ID] = append([]int64(nil), categoryIDs...)
	return m.blogWithCategoriesLocked(blog.ID), nil
}

func (m *MemoryStore) blogWithCategoriesLocked(id int64) domain.Blog {
	blog := m.blogs[id]
	blog.Categories = nil
	for _, categoryID := range m.blogCats[id] {
		if category, ok := m.categories[categoryID]; ok {
			blog.Categories = append(blog.Categories, category)
		}
	}
	return blog
}

func (m *MemoryStore) GetBlogByID(_ context.Context, id int64) (domain.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.blogs[id]; !ok {
		return domain.Blog{}, ErrNotFound
	}
	return m.blogWithCategoriesLocked(id), nil
}

func (m *MemoryStore) GetBlogBySlug(_ context.Context, slug string) (domain.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, blog := range m.blogs {
		if strings.EqualFold(blog.Slug, slug) {
			return m.blogWithCategoriesLocked(id), nil
		}
	}
	return domain.Blog{}, ErrNotFound
}

func (m *MemoryStore) ListBlogs(_ context.Context, filter BlogFilter) ([]domain.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Blog, 0, len(m.blogs))
	for id, blog := range m.blogs {
		if filter.Authorless {
			if blog.AuthorID != nil {
				continue
			}
		} else if filter.AuthorID != nil {
			if blog.AuthorID == nil || *blog.AuthorID != *filter.AuthorID {
				continue
			}
		}
		if filter.Published != nil && blog.Published != *filter.Published {
			continue
		}
		if filter.CategoryID != nil && !containsID(m.blogCats[id], *filter.CategoryID) {
			continue
		}
		res = append(res, m.blogWithCategoriesLocked(id))
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (m *MemoryStore) UpdateBlog(_ context.Context, blog domain.Blog, categoryIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[blog.ID]; !ok {
		return ErrNotFound
	}
	if categoryIDs != nil {
		for _, categoryID := range categoryIDs {
			if _, ok := m.categories[categoryID]; !ok {
				return ErrNotFound
			}
		}
		m.blogCats[blog.ID] = append([]int64(nil), categoryIDs...)
	}
	blog.Categories = nil
	m.blogs[blog.ID] = blog
	return nil
}

func (m *MemoryStore) DeleteBlog(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return ErrNotFound
	}
	m.deleteBlogLocked(id)
	return nil
}

func (m *MemoryStore) deleteBlogLocked(id int64) {
	for commentID, comment := range m.comments {
		if comment.BlogID == id {
			delete(m.comments, commentID)
		}
	}
	delete(m.blogCats, id)
	delete(m.blogs, id)
}

// categories

func (m *MemoryStore) CreateCategory(_ context.Context, category domain.Category) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if strings.EqualFold(existing.Title, category.Title) || strings.EqualFold(existing.Slug, category.Slug) {
			return domain.Category{}, ErrConflict
		}
	}
	category.ID = m.allocID("category")
	m.categories[category.ID] = category
	return category, nil
}

func (m *MemoryStore) GetCategoryByID(_ context.Context, id int64) (domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	category, ok := m.categories[id]
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	return category, nil
}

func (m *MemoryStore) GetCategoryBySlug(_ context.Context, slug string) (domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, category := range m.categories {
		if strings.EqualFold(category.Slug, slug) {
			return category, nil
		}
	}
	return domain.Category{}, ErrNotFound
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Category, 0, len(m.categories))
	for _, category := range m.categories {
		res = append(res, category)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Title < res[j].Title })
	return res, nil
}

func (m *MemoryStore) UpdateCategory(_ context.Context, category domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[category.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.categories {
		if id == category.ID {
			continue
		}
		if strings.EqualFold(existing.Title, category.Title) || strings.EqualFold(existing.Slug, category.Slug) {
			return ErrConflict
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *MemoryStore) DeleteCategory(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	for blogID, categoryIDs := range m.blogCats {
		filtered := categoryIDs[:0]
		for _, categoryID := range categoryIDs {
			if categoryID != id {
				filtered = append(filtered, categoryID)
			}
		}
		m.blogCats[blogID] = filtered
	}
	delete(m.categories, id)
	return nil
}

// comments

func (m *MemoryStore) CreateComment(_ context.Context, comment domain.Comment) (domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var parentPath string
	if comment.ParentID != nil {
		parent, ok := m.comments[*comment.ParentID]
		if !ok {
			return domain.Comment{}, ErrNotFound
		}
		parentPath = parent.Path
	}
	comment.ID = m.allocID("comment")
	comment.Path = pathFor(parentPath, comment.ID)
	m.comments[comment.ID] = comment
	return comment, nil
}

func (m *MemoryStore) GetCommentByID(_ context.Context, id int64) (domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	comment, ok := m.comments[id]
	if !ok {
		return domain.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (m *MemoryStore) ListComments(_ context.Context, filter CommentFilter) ([]domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Comment, 0, len(m.comments))
	for _, comment := range m.comments {
		if filter.Authorless {
			if comment.AuthorID != nil {
				continue
			}
		} else if filter.AuthorID != nil {
			if comment.AuthorID == nil || *comment.AuthorID != *filter.AuthorID {
				continue
			}
		}
		if filter.BlogID != nil && comment.BlogID != *filter.BlogID {
			continue
		}
		if filter.ParentID != nil {
			if comment.ParentID == nil || *comment.ParentID != *filter.ParentID {
				continue
			}
		}
		res = append(res, comment)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].ThreadAt.Equal(res[j].ThreadAt) {
			return res[i].ThreadAt.After(res[j].ThreadAt)
		}
		return res[i].Path < res[j].Path
	})
	return res, nil
}

func (m *MemoryStore) UpdateCommentBody(_ context.Context, id int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment, ok := m.comments[id]
	if !ok {
		return ErrNotFound
	}
	comment.Body = body
	now := time.Now().UTC()
	comment.UpdatedAt = &now
	m.comments[id] = comment
	return nil
}

func (m *MemoryStore) DeleteComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	comment, ok := m.comments[id]
	if !ok {
		return ErrNotFound
	}
	prefix := comment.Path + "."
	for otherID, other := range m.comments {
		if other.Path == comment.Path || strings.HasPrefix(other.Path, prefix) {
			delete(m.comments, otherID)
		}
	}
	return nil
}

func (m *MemoryStore) HasSlug(_ context.Context, resource domain.ResourceType, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch resource {
	case domain.ResourceBlog:
		for _, blog := range m.blogs {
			if strings.EqualFold(blog.Slug, slug) {
				return true, nil
			}
		}
	case domain.ResourceCategory:
		for _, category := range m.categories {
			if strings.EqualFold(category.Slug, slug) {
				return true, nil
			}
		}
	default:
		return false, fmt.Errorf("%s does not carry a slug", resource)
	}
	return false, nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
