package repository

import (
	"context"

	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository handles account data access.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userSelect = `SELECT id, username, email, password_hash, full_name, phone_number, role,
	email_confirmed, created_at, updated_at FROM users`

func scanUser(row scanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.PhoneNumber, &u.Role,
		&u.EmailConfirmed, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) getOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	u := &model.User{}
	if err := scanUser(database.Conn(ctx, r.db).QueryRow(ctx, userSelect+` WHERE `+cond, arg), u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByUsername retrieves a user by username, case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `LOWER(username) = LOWER($1)`, username)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `LOWER(email) = LOWER($1)`, email)
}

// Create inserts a new user. The caller assigns the ID.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = model.UserRoleUser
	}
	err := database.Conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, full_name, phone_number, role, email_confirmed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.PhoneNumber, u.Role, u.EmailConfirmed,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

// ConfirmEmail marks the address verified. Returns pgx.ErrNoRows when absent.
func (r *UserRepository) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `UPDATE users SET email_confirmed = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

// UpdatePassword replaces the stored hash. Returns pgx.ErrNoRows when absent.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

// UpdateRole changes a user's role. Returns pgx.ErrNoRows when absent.
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.UserRole) error {
	return r.execOne(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
}

func (r *UserRepository) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := database.Conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UsernamesByIDs maps each known ID to its username.
func (r *UserRepository) UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := database.Conn(ctx, r.db).Query(ctx, `SELECT id, username FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
