package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"blogd/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&AccountModel{}, &CategoryModel{}, &BlogModel{}, &CommentModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// pathFor builds a materialized path segment chain for a comment identifier
// under the given parent path ("" for roots).
func pathFor(parentPath string, id int64) string {
	segment := fmt.Sprintf("%0*d", domain.PathSegmentDigits, id)
	if parentPath == "" {
		return segment
	}
	return parentPath + "." + segment
}

// accounts

func (s *GormStore) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	model := accountToModel(account)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Account{}, mapErr(err)
	}
	return accountFromModel(model), nil
}

func (s *GormStore) GetAccountByID(ctx context.Context, id int64) (domain.Account, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return domain.Account{}, mapErr(err)
	}
	return accountFromModel(model), nil
}

func (s *GormStore) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		return domain.Account{}, mapErr(err)
	}
	return accountFromModel(model), nil
}

func (s *GormStore) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		return domain.Account{}, mapErr(err)
	}
	return accountFromModel(model), nil
}

func (s *GormStore) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var models []AccountModel
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, mapErr(err)
	}
	res := make([]domain.Account, 0, len(models))
	for _, m := range models {
		res = append(res, accountFromModel(m))
	}
	return res, nil
}

func (s *GormStore) UpdateAccount(ctx context.Context, account domain.Account) error {
	model := accountToModel(account)
	return mapErr(s.db.WithContext(ctx).Save(&model).Error)
}

func (s *GormStore) DeleteAccount(ctx context.Context, id int64, deleteBlogs bool) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var blogs []BlogModel
		if err := tx.Where("author_id = ?", id).Find(&blogs).Error; err != nil {
			return err
		}
		if deleteBlogs {
			for _, blog := range blogs {
				if err := deleteBlogTx(tx, blog.ID); err != nil {
					return err
				}
			}
		} else if len(blogs) > 0 {
			if err := tx.Model(&BlogModel{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&CommentModel{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&AccountModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// blogs

func (s *GormStore) CreateBlog(ctx context.Context, blog domain.Blog, categoryIDs []int64) (domain.Blog, error) {
	model := blogToModel(blog)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		categories, err := categoriesByID(tx, categoryIDs)
		if err != nil {
			return err
		}
		return tx.Model(&model).Association("Categories").Replace(categories)
	})
	if err != nil {
		return domain.Blog{}, mapErr(err)
	}
	return s.GetBlogByID(ctx, model.ID)
}

func (s *GormStore) GetBlogByID(ctx context.Context, id int64) (domain.Blog, error) {
	var model BlogModel
	if err := s.db.WithContext(ctx).Preload("Categories").First(&model, "id = ?", id).Error; err != nil {
		return domain.Blog{}, mapErr(err)
	}
	return blogFromModel(model), nil
}

func (s *GormStore) GetBlogBySlug(ctx context.Context, slug string) (domain.Blog, error) {
	var model BlogModel
	if err := s.db.WithContext(ctx).Preload("Categories").First(&model, "lower(slug) = lower(?)", slug).Error; err != nil {
		return domain.Blog{}, mapErr(err)
	}
	return blogFromModel(model), nil
}

func (s *GormStore) ListBlogs(ctx context.Context, filter BlogFilter) ([]domain.Blog, error) {
	tx := s.db.WithContext(ctx).Preload("Categories").Order("created_at DESC")
	if filter.Authorless {
		tx = tx.Where("author_id IS NULL")
	} else if filter.AuthorID != nil {
		tx = tx.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.Published != nil {
		tx = tx.Where("published = ?", *filter.Published)
	}
	if filter.CategoryID != nil {
		tx = tx.Joins("JOIN blog_categories bc ON bc.blog_model_id = blogs.id").
			Where("bc.category_model_id = ?", *filter.CategoryID)
	}
	var models []BlogModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, mapErr(err)
	}
	res := make([]domain.Blog, 0, len(models))
	for _, m := range models {
		res = append(res, blogFromModel(m))
	}
	return res, nil
}

func (s *GormStore) UpdateBlog(ctx context.Context, blog domain.Blog, categoryIDs []int64) error {
	model := blogToModel(blog)
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		if categoryIDs == nil {
			return nil
		}
		categories, err := categoriesByID(tx, categoryIDs)
		if err != nil {
			return err
		}
		return tx.Model(&model).Association("Categories").Replace(categories)
	}))
}

func (s *GormStore) DeleteBlog(ctx context.Context, id int64) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteBlogTx(tx, id)
	}))
}

// deleteBlogTx removes a blog with its comments and category links.
func deleteBlogTx(tx *gorm.DB, id int64) error {
	if err := tx.Delete(&CommentModel{}, "blog_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Model(&BlogModel{ID: id}).Association("Categories").Clear(); err != nil {
		return err
	}
	res := tx.Delete(&BlogModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func categoriesByID(tx *gorm.DB, ids []int64) ([]CategoryModel, error) {
	var categories []CategoryModel
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, gorm.ErrRecordNotFound
	}
	return categories, nil
}

// categories

func (s *GormStore) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	model := categoryToModel(category)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Category{}, mapErr(err)
	}
	return categoryFromModel(model), nil
}

func (s *GormStore) GetCategoryByID(ctx context.Context, id int64) (domain.Category, error) {
	var model CategoryModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return domain.Category{}, mapErr(err)
	}
	return categoryFromModel(model), nil
}

func (s *GormStore) GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	var model CategoryModel
	if err := s.db.WithContext(ctx).First(&model, "lower(slug) = lower(?)", slug).Error; err != nil {
		return domain.Category{}, mapErr(err)
	}
	return categoryFromModel(model), nil
}

func (s *GormStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var models []CategoryModel
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&models).Error; err != nil {
		return nil, mapErr(err)
	}
	res := make([]domain.Category, 0, len(models))
	for _, m := range models {
		res = append(res, categoryFromModel(m))
	}
	return res, nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, category domain.Category) error {
	model := categoryToModel(category)
	return mapErr(s.db.WithContext(ctx).Save(&model).Error)
}

func (s *GormStore) DeleteCategory(ctx context.Context, id int64) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&CategoryModel{ID: id}).Association("Blogs").Clear(); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		res := tx.Delete(&CategoryModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// comments

func (s *GormStore) CreateComment(ctx context.Context, comment domain.Comment) (domain.Comment, error) {
	model := commentToModel(comment)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parentPath string
		if model.ParentID != nil {
			var parent CommentModel
			if err := tx.First(&parent, "id = ?", *model.ParentID).Error; err != nil {
				return err
			}
			parentPath = parent.Path
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		// Path depends on the generated identifier, so it is a second write
		// inside the same transaction.
		model.Path = pathFor(parentPath, model.ID)
		return tx.Model(&model).Update("path", model.Path).Error
	})
	if err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return commentFromModel(model), nil
}

func (s *GormStore) GetCommentByID(ctx context.Context, id int64) (domain.Comment, error) {
	var model CommentModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return domain.Comment{}, mapErr(err)
	}
	return commentFromModel(model), nil
}

func (s *GormStore) ListComments(ctx context.Context, filter CommentFilter) ([]domain.Comment, error) {
	tx := s.db.WithContext(ctx).Order("thread_at DESC, path ASC")
	if filter.Authorless {
		tx = tx.Where("author_id IS NULL")
	} else if filter.AuthorID != nil {
		tx = tx.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.BlogID != nil {
		tx = tx.Where("blog_id = ?", *filter.BlogID)
	}
	if filter.ParentID != nil {
		tx = tx.Where("parent_id = ?", *filter.ParentID)
	}
	var models []CommentModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, mapErr(err)
	}
	res := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		res = append(res, commentFromModel(m))
	}
	return res, nil
}

func (s *GormStore) UpdateCommentBody(ctx context.Context, id int64, body string) error {
	res := s.db.WithContext(ctx).Model(&CommentModel{}).Where("id = ?", id).
		Updates(map[string]any{"body": body, "updated_at": nowPtr()})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteComment(ctx context.Context, id int64) error {
	return mapErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CommentModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			return err
		}
		// Descendants share the deleted comment's path as a prefix.
		return tx.Where("path = ? OR path LIKE ?", model.Path, model.Path+".%").
			Delete(&CommentModel{}).Error
	}))
}

func (s *GormStore) HasSlug(ctx context.Context, resource domain.ResourceType, slug string) (bool, error) {
	var (
		count int64
		err   error
	)
	switch resource {
	case domain.ResourceBlog:
		err = s.db.WithContext(ctx).Model(&BlogModel{}).Where("slug = ?", slug).Count(&count).Error
	case domain.ResourceCategory:
		err = s.db.WithContext(ctx).Model(&CategoryModel{}).Where("slug = ?", slug).Count(&count).Error
	default:
		return false, fmt.Errorf("%s does not carry a slug", resource)
	}
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}
