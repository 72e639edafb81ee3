package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/pkg/database"
)

type roleRepository struct {
	db *database.Postgres
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *database.Postgres) RoleRepository {
	return &roleRepository{db: db}
}

// GetByName retrieves a seeded role by name
func (r *roleRepository) GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	role := &domain.Role{}

	err := r.db.DB.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, string(name)).
		Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s not found: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}
