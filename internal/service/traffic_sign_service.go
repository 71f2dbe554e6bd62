package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
)

// TrafficSignStore is the sign persistence used by TrafficSignService.
type TrafficSignStore interface {
	ListActivePaginated(ctx context.Context, limit, offset int) ([]model.TrafficSign, int, error)
	GetByID(ctx context.Context, id int64) (*model.TrafficSign, error)
	ListByType(ctx context.Context, signType model.SignType) ([]model.TrafficSign, error)
	Search(ctx context.Context, keyword string, limit int) ([]model.TrafficSign, error)
	Create(ctx context.Context, s *model.TrafficSign) error
	Update(ctx context.Context, s *model.TrafficSign) error
	Deactivate(ctx context.Context, id int64) error
}

var signTypes = map[string]model.SignType{
	"prohibition": model.SignTypeProhibition,
	"warning":     model.SignTypeWarning,
	"mandatory":   model.SignTypeMandatory,
	"information": model.SignTypeInformation,
	"additional":  model.SignTypeAdditional,
}

// ParseSignType accepts sign type names case-insensitively.
func ParseSignType(raw string) (model.SignType, error) {
	t, ok := signTypes[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", newError(KindValidation, "Unknown sign type %q", raw)
	}
	return t, nil
}

// TrafficSignService handles the road sign reference section.
type TrafficSignService struct {
	signs TrafficSignStore
}

// NewTrafficSignService creates a new TrafficSignService.
func NewTrafficSignService(signs TrafficSignStore) *TrafficSignService {
	return &TrafficSignService{signs: signs}
}

// List retrieves a page of active signs.
func (s *TrafficSignService) List(ctx context.Context, page, perPage int) ([]model.TrafficSign, *response.Pagination, error) {
	page, perPage = paginate(page, perPage)
	signs, total, err := s.signs.ListActivePaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list traffic signs: %w", err)
	}
	return signs, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// GetByID retrieves a sign.
func (s *TrafficSignService) GetByID(ctx context.Context, id int64) (*model.TrafficSign, error) {
	sign, err := s.signs.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrTrafficSignNotFound
		}
		return nil, fmt.Errorf("get traffic sign: %w", err)
	}
	return sign, nil
}

// ListByType retrieves active signs of one type.
func (s *TrafficSignService) ListByType(ctx context.Context, rawType string) ([]model.TrafficSign, error) {
	t, err := ParseSignType(rawType)
	if err != nil {
		return nil, err
	}
	signs, err := s.signs.ListByType(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("list traffic signs by type: %w", err)
	}
	return signs, nil
}

// Search matches active signs against a keyword.
func (s *TrafficSignService) Search(ctx context.Context, keyword string) ([]model.TrafficSign, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, newError(KindValidation, "Keyword is required")
	}
	signs, err := s.signs.Search(ctx, keyword, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search traffic signs: %w", err)
	}
	return signs, nil
}

// Create stores a new sign.
func (s *TrafficSignService) Create(ctx context.Context, req *model.TrafficSignRequest) (*model.TrafficSign, error) {
	sign, err := signFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.signs.Create(ctx, sign); err != nil {
		return nil, translateSignErr(err, "create traffic sign")
	}
	return sign, nil
}

// Update replaces a sign.
func (s *TrafficSignService) Update(ctx context.Context, id int64, req *model.TrafficSignRequest) (*model.TrafficSign, error) {
	sign, err := signFromRequest(req)
	if err != nil {
		return nil, err
	}
	sign.ID = id
	if err := s.signs.Update(ctx, sign); err != nil {
		return nil, translateSignErr(err, "update traffic sign")
	}
	return sign, nil
}

// Delete hides a sign from listings.
func (s *TrafficSignService) Delete(ctx context.Context, id int64) error {
	if err := s.signs.Deactivate(ctx, id); err != nil {
		return translateSignErr(err, "delete traffic sign")
	}
	return nil
}

func signFromRequest(req *model.TrafficSignRequest) (*model.TrafficSign, error) {
	t, err := ParseSignType(req.SignType)
	if err != nil {
		return nil, err
	}
	return &model.TrafficSign{
		Code:                 strings.TrimSpace(req.Code),
		Name:                 req.Name,
		Description:          req.Description,
		ImageURL:             req.ImageURL,
		SignType:             t,
		CategoryID:           req.CategoryID,
		Meaning:              req.Meaning,
		RelatedQuestionCount: req.RelatedQuestionCount,
	}, nil
}

func translateSignErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateSignCode):
		return newError(KindConflict, "Traffic sign code already exists")
	case isNoRows(err):
		return ErrTrafficSignNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
