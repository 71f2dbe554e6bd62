package repository

import (
	"context"
	"strings"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
)

// LicenseTypeRepository handles license type data access.
type LicenseTypeRepository struct {
	db database.DBTX
}

// NewLicenseTypeRepository creates a new LicenseTypeRepository.
func NewLicenseTypeRepository(db database.DBTX) *LicenseTypeRepository {
	return &LicenseTypeRepository{db: db}
}

const licenseTypeSelect = `SELECT id, code, name, vehicle_type, total_questions, time_limit,
	passing_score, required_elimination, created_at FROM license_types`

func scanLicenseType(row scanner, l *model.LicenseType) error {
	return row.Scan(&l.ID, &l.Code, &l.Name, &l.VehicleType, &l.TotalQuestions, &l.TimeLimit,
		&l.PassingScore, &l.RequiredElimination, &l.CreatedAt)
}

// List retrieves every license type ordered by code.
func (r *LicenseTypeRepository) List(ctx context.Context) ([]model.LicenseType, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, licenseTypeSelect+` ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.LicenseType{}
	for rows.Next() {
		var l model.LicenseType
		if err := scanLicenseType(rows, &l); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// GetByID retrieves a license type by ID.
func (r *LicenseTypeRepository) GetByID(ctx context.Context, id int64) (*model.LicenseType, error) {
	l := &model.LicenseType{}
	if err := scanLicenseType(database.Conn(ctx, r.db).QueryRow(ctx, licenseTypeSelect+` WHERE id = $1`, id), l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetByCode retrieves a license type by code, case-insensitively.
func (r *LicenseTypeRepository) GetByCode(ctx context.Context, code string) (*model.LicenseType, error) {
	l := &model.LicenseType{}
	err := scanLicenseType(database.Conn(ctx, r.db).QueryRow(ctx,
		licenseTypeSelect+` WHERE code = $1`, strings.ToUpper(strings.TrimSpace(code))), l)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Upsert inserts a license type or updates it by code.
func (r *LicenseTypeRepository) Upsert(ctx context.Context, l *model.LicenseType) error {
	l.Code = strings.ToUpper(strings.TrimSpace(l.Code))
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO license_types (code, name, vehicle_type, total_questions, time_limit, passing_score, required_elimination)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (code) DO UPDATE
		 SET name = EXCLUDED.name, vehicle_type = EXCLUDED.vehicle_type, total_questions = EXCLUDED.total_questions,
		     time_limit = EXCLUDED.time_limit, passing_score = EXCLUDED.passing_score,
		     required_elimination = EXCLUDED.required_elimination
		 RETURNING id, created_at`,
		l.Code, l.Name, l.VehicleType, l.TotalQuestions, l.TimeLimit, l.PassingScore, l.RequiredElimination,
	).Scan(&l.ID, &l.CreatedAt)
}
