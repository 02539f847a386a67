package postgres

import (
	"database/sql"
	"fmt"

	"github.com/adoptapaw/backend/internal/domain"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// CreateUser creates a new user with a hashed password
func (r *UserRepo) CreateUser(email, name, passwordHash, role string) (int64, error) {
	query := `
	INSERT INTO users (email, name, password_hash, role, verified, is_active)
	VALUES ($1, $2, $3, $4, FALSE, TRUE)
	RETURNING id;
	`
	var userID int64
	err := r.DB.QueryRow(query, email, name, passwordHash, role).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %v", err)
	}
	return userID, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepo) GetUserByEmail(email string) (*domain.User, error) {
	query := `
	SELECT id, email, name, role, verified, is_active, password_hash, created_at
	FROM users
	WHERE email = $1;
	`
	return r.scanUser(r.DB.QueryRow(query, email))
}

// GetUserByID retrieves a user by id
func (r *UserRepo) GetUserByID(userID int64) (*domain.User, error) {
	query := `
	SELECT id, email, name, role, verified, is_active, password_hash, created_at
	FROM users
	WHERE id = $1;
	`
	return r.scanUser(r.DB.QueryRow(query, userID))
}

func (r *UserRepo) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.Verified,
		&user.IsActive,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}
