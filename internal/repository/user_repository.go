package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"induction-portal/internal/domain"
	"induction-portal/internal/repository/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	role := string(u.Role)
	if role == "" {
		role = string(domain.RoleUser)
	}
	return &models.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateUser inserts a new user. A duplicate email is reported as a conflict.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
	          VALUES (:id, :name, :email, :password_hash, :role, :created_at, :updated_at)`

	_, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, fromDomainUser(user))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("An account with this email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by normalized email.
func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE email = ?`)

	if err := GetExecutor(ctx, r.db).GetContext(ctx, &user, query, domain.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return toDomainUser(&user), nil
}

// GetUserByID retrieves a user by id.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE id = ?`)

	if err := GetExecutor(ctx, r.db).GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&user), nil
}

// isUniqueViolation recognises unique constraint failures from both supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
