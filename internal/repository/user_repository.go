package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chisomo/villagebank/internal/domain"
)

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `id, username, password_hash, role, name, email, phone, created_at`

func (r *userRepository) GetByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user domain.User
	if err := sqlx.GetContext(ctx, q, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	if err := sqlx.GetContext(ctx, q, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, q sqlx.ExtContext) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	var users []*domain.User
	if err := sqlx.SelectContext(ctx, q, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}
