package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/pkg/database"
)

// professionalRepository implements ProfessionalRepository interface.
// Rows are created by userRepository.CreateWithPerson during registration.
type professionalRepository struct {
	db *database.Postgres
}

// NewProfessionalRepository creates a new professional repository
func NewProfessionalRepository(db *database.Postgres) ProfessionalRepository {
	return &professionalRepository{db: db}
}

// GetByUserID retrieves the professional profile owned by a user
func (r *professionalRepository) GetByUserID(ctx context.Context, userID string) (*domain.Professional, error) {
	query := `
		SELECT id, user_id, description, years_experience, created_at
		FROM professionals
		WHERE user_id = $1
	`

	professional := &domain.Professional{}
	var description sql.NullString
	var yearsExperience sql.NullInt32

	err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(
		&professional.ID,
		&professional.UserID,
		&description,
		&yearsExperience,
		&professional.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("professional for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}

	if description.Valid {
		professional.Description = &description.String
	}
	if yearsExperience.Valid {
		years := int(yearsExperience.Int32)
		professional.YearsExperience = &years
	}

	return professional, nil
}
