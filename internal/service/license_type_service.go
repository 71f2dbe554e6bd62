package service

import (
	"context"
	"fmt"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LicenseTypeStore is the license type persistence used by LicenseTypeService.
type LicenseTypeStore interface {
	List(ctx context.Context) ([]model.LicenseType, error)
	GetByID(ctx context.Context, id int64) (*model.LicenseType, error)
	GetByCode(ctx context.Context, code string) (*model.LicenseType, error)
}

// LicenseTypeService serves license types.
type LicenseTypeService struct {
	licenses LicenseTypeStore
	cache    catalogCache
}

// NewLicenseTypeService creates a new LicenseTypeService. rdb may be nil.
func NewLicenseTypeService(licenses LicenseTypeStore, rdb *redis.Client, log zerolog.Logger) *LicenseTypeService {
	return &LicenseTypeService{
		licenses: licenses,
		cache:    catalogCache{rdb: rdb, log: log.With().Str("component", "license_type_service").Logger()},
	}
}

// List returns every license type ordered by code.
func (s *LicenseTypeService) List(ctx context.Context) ([]model.LicenseType, error) {
	var cached []model.LicenseType
	if s.cache.get(ctx, config.CacheKey.LicenseTypesKey(), &cached) {
		return cached, nil
	}

	list, err := s.licenses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list license types: %w", err)
	}
	if list == nil {
		list = []model.LicenseType{}
	}
	s.cache.set(ctx, config.CacheKey.LicenseTypesKey(), list)
	return list, nil
}

// GetByID retrieves a license type.
func (s *LicenseTypeService) GetByID(ctx context.Context, id int64) (*model.LicenseType, error) {
	l, err := s.licenses.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrLicenseTypeNotFound
		}
		return nil, fmt.Errorf("get license type: %w", err)
	}
	return l, nil
}

// GetByCode retrieves a license type by code.
func (s *LicenseTypeService) GetByCode(ctx context.Context, code string) (*model.LicenseType, error) {
	l, err := s.licenses.GetByCode(ctx, code)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrLicenseTypeNotFound
		}
		return nil, fmt.Errorf("get license type: %w", err)
	}
	return l, nil
}
