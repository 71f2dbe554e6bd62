package service

import (
	"context"
	"fmt"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CategoryStore is the category persistence used by CategoryService.
type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
}

// CategoryService serves question categories.
type CategoryService struct {
	categories CategoryStore
	cache      catalogCache
}

// NewCategoryService creates a new CategoryService. rdb may be nil.
func NewCategoryService(categories CategoryStore, rdb *redis.Client, log zerolog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		cache:      catalogCache{rdb: rdb, log: log.With().Str("component", "category_service").Logger()},
	}
}

// List returns every category in display order with question counts.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.get(ctx, config.CacheKey.CategoriesKey(), &cached) {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	s.cache.set(ctx, config.CacheKey.CategoriesKey(), categories)
	return categories, nil
}

// GetByID retrieves a category.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Invalidate drops cached category lists, e.g. after question writes change counts.
func (s *CategoryService) Invalidate(ctx context.Context) {
	s.cache.invalidate(ctx, config.CacheKey.CategoriesKey())
}
