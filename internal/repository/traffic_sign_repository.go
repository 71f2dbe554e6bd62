package repository

import (
	"context"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/jackc/pgx/v5"
)

// TrafficSignRepository handles traffic sign data access.
type TrafficSignRepository struct {
	db database.DBTX
}

// NewTrafficSignRepository creates a new TrafficSignRepository.
func NewTrafficSignRepository(db database.DBTX) *TrafficSignRepository {
	return &TrafficSignRepository{db: db}
}

const trafficSignSelect = `SELECT id, code, name, description, image_url, sign_type, category_id, meaning,
	related_question_count, is_active, created_at, updated_at FROM traffic_signs`

func scanTrafficSign(row scanner, s *model.TrafficSign) error {
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Description, &s.ImageURL, &s.SignType, &s.CategoryID, &s.Meaning,
		&s.RelatedQuestionCount, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == nil {
		s.SignTypeLocalized = s.SignType.Localized()
	}
	return err
}

func collectSigns(rows pgx.Rows) ([]model.TrafficSign, error) {
	defer rows.Close()
	signs := []model.TrafficSign{}
	for rows.Next() {
		var s model.TrafficSign
		if err := scanTrafficSign(rows, &s); err != nil {
			return nil, err
		}
		signs = append(signs, s)
	}
	return signs, rows.Err()
}

// ListActivePaginated retrieves active signs ordered by code.
func (r *TrafficSignRepository) ListActivePaginated(ctx context.Context, limit, offset int) ([]model.TrafficSign, int, error) {
	var total int
	if err := database.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM traffic_signs WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := database.Conn(ctx, r.db).Query(ctx,
		trafficSignSelect+` WHERE is_active ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	signs, err := collectSigns(rows)
	return signs, total, err
}

// GetByID retrieves a sign by ID regardless of its active flag.
func (r *TrafficSignRepository) GetByID(ctx context.Context, id int64) (*model.TrafficSign, error) {
	s := &model.TrafficSign{}
	if err := scanTrafficSign(database.Conn(ctx, r.db).QueryRow(ctx, trafficSignSelect+` WHERE id = $1`, id), s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByType retrieves active signs of one type ordered by code.
func (r *TrafficSignRepository) ListByType(ctx context.Context, signType model.SignType) ([]model.TrafficSign, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx,
		trafficSignSelect+` WHERE is_active AND sign_type = $1 ORDER BY code`, signType)
	if err != nil {
		return nil, err
	}
	return collectSigns(rows)
}

// Search matches active signs by code, name, meaning or description.
func (r *TrafficSignRepository) Search(ctx context.Context, keyword string, limit int) ([]model.TrafficSign, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx,
		trafficSignSelect+` WHERE is_active
		   AND (code ILIKE $1 OR name ILIKE $1 OR meaning ILIKE $1 OR description ILIKE $1)
		 ORDER BY code LIMIT $2`, "%"+keyword+"%", limit)
	if err != nil {
		return nil, err
	}
	return collectSigns(rows)
}

// Create inserts a new sign.
func (r *TrafficSignRepository) Create(ctx context.Context, s *model.TrafficSign) error {
	err := database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO traffic_signs (code, name, description, image_url, sign_type, category_id, meaning,
		                            related_question_count, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		 RETURNING id, is_active, created_at, updated_at`,
		s.Code, s.Name, s.Description, s.ImageURL, s.SignType, s.CategoryID, s.Meaning, s.RelatedQuestionCount,
	).Scan(&s.ID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSignCode
		}
		return err
	}
	s.SignTypeLocalized = s.SignType.Localized()
	return nil
}

// Update replaces a sign's fields. Returns pgx.ErrNoRows when absent.
func (r *TrafficSignRepository) Update(ctx context.Context, s *model.TrafficSign) error {
	err := database.Conn(ctx, r.db).QueryRow(ctx,
		`UPDATE traffic_signs
		 SET code = $1, name = $2, description = $3, image_url = $4, sign_type = $5, category_id = $6,
		     meaning = $7, related_question_count = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING is_active, created_at, updated_at`,
		s.Code, s.Name, s.Description, s.ImageURL, s.SignType, s.CategoryID, s.Meaning, s.RelatedQuestionCount, s.ID,
	).Scan(&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSignCode
		}
		return err
	}
	s.SignTypeLocalized = s.SignType.Localized()
	return nil
}

// Deactivate hides a sign from listings. Returns pgx.ErrNoRows when absent.
func (r *TrafficSignRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := database.Conn(ctx, r.db).Exec(ctx,
		`UPDATE traffic_signs SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Upsert inserts or replaces a sign by code. Used by the catalog seeder.
func (r *TrafficSignRepository) Upsert(ctx context.Context, s *model.TrafficSign) error {
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO traffic_signs (code, name, description, image_url, sign_type, category_id, meaning,
		                            related_question_count, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		 ON CONFLICT (code) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description, image_url = EXCLUDED.image_url,
		     sign_type = EXCLUDED.sign_type, category_id = EXCLUDED.category_id, meaning = EXCLUDED.meaning,
		     related_question_count = EXCLUDED.related_question_count, is_active = TRUE, updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		s.Code, s.Name, s.Description, s.ImageURL, s.SignType, s.CategoryID, s.Meaning, s.RelatedQuestionCount,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}
