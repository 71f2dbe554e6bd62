package repository

import (
	"context"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
)

// CategoryRepository handles category data access.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categorySelect = `SELECT c.id, c.name, c.description, c.order_index, c.created_at,
	(SELECT COUNT(*) FROM questions q WHERE q.category_id = c.id)
	FROM categories c`

func scanCategory(row scanner, c *model.Category) error {
	return row.Scan(&c.ID, &c.Name, &c.Description, &c.OrderIndex, &c.CreatedAt, &c.QuestionCount)
}

// List retrieves all categories ordered by display order, with question counts.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, categorySelect+` ORDER BY c.order_index, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := scanCategory(rows, &c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	c := &model.Category{}
	if err := scanCategory(database.Conn(ctx, r.db).QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id), c); err != nil {
		return nil, err
	}
	return c, nil
}

// Upsert inserts a category or updates it by name.
func (r *CategoryRepository) Upsert(ctx context.Context, c *model.Category) error {
	return database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO categories (name, description, order_index)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, order_index = EXCLUDED.order_index
		 RETURNING id, created_at`,
		c.Name, c.Description, c.OrderIndex,
	).Scan(&c.ID, &c.CreatedAt)
}
