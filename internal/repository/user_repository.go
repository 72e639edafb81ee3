package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/pkg/database"
)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.avatar_url, u.role_id,
		u.person_id, u.is_oauth, u.deleted_at, u.created_at, u.updated_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser scans the columns listed in userColumns followed by extra
func scanUser(row rowScanner, extra ...any) (*domain.User, error) {
	user := &domain.User{}
	var passwordHash, avatarURL sql.NullString
	var deletedAt sql.NullTime

	dest := []any{
		&user.ID,
		&user.Username,
		&user.Email,
		&passwordHash,
		&avatarURL,
		&user.RoleID,
		&user.PersonID,
		&user.IsOAuth,
		&deletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if passwordHash.Valid {
		user.PasswordHash = &passwordHash.String
	}
	if avatarURL.Valid {
		user.AvatarURL = &avatarURL.String
	}
	if deletedAt.Valid {
		user.DeletedAt = &deletedAt.Time
	}

	return user, nil
}

func (r *userRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists bool
	if err := r.db.DB.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ExistsByEmail reports whether any user, deleted or not, owns email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// ExistsByUsername reports whether username is taken
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	exists, err := r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// ExistsByDNI reports whether a person with the national ID exists
func (r *userRepository) ExistsByDNI(ctx context.Context, dni string) (bool, error) {
	exists, err := r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM persons WHERE dni = $1)`, dni)
	if err != nil {
		return false, fmt.Errorf("failed to check dni: %w", err)
	}
	return exists, nil
}

// CreateWithPerson creates the person, the user and the optional
// professional profile. Either all rows are persisted or none.
func (r *userRepository) CreateWithPerson(ctx context.Context, person *domain.Person, user *domain.User, professional *domain.Professional) error {
	now := time.Now()

	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	person.CreatedAt, person.UpdatedAt = now, now

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.PersonID = person.ID
	user.CreatedAt, user.UpdatedAt = now, now

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO persons (id, name, last_name, dni, is_verified, contact_phone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			person.ID,
			person.Name,
			person.LastName,
			person.DNI,
			person.IsVerified,
			person.ContactPhone,
			person.CreatedAt,
			person.UpdatedAt,
		)
		if err != nil {
			return mapUniqueViolation("failed to create person", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, avatar_url, role_id, person_id, is_oauth, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.AvatarURL,
			user.RoleID,
			user.PersonID,
			user.IsOAuth,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return mapUniqueViolation("failed to create user", err)
		}

		if professional == nil {
			return nil
		}

		if professional.ID == "" {
			professional.ID = uuid.New().String()
		}
		professional.UserID = user.ID
		professional.CreatedAt = now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO professionals (id, user_id, description, years_experience, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			professional.ID,
			professional.UserID,
			professional.Description,
			professional.YearsExperience,
			professional.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create professional: %w", err)
		}

		return nil
	})
}

// GetByEmail retrieves a non-deleted user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		WHERE u.email = $1 AND u.deleted_at IS NULL`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID, including soft-deleted ones
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		WHERE u.id = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetProfile retrieves a user joined with its role and person
func (r *userRepository) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + `,
			r.id, r.name,
			p.id, p.name, p.last_name, p.dni, p.is_verified, p.contact_phone, p.created_at, p.updated_at
		FROM users u
		JOIN roles r ON r.id = u.role_id
		JOIN persons p ON p.id = u.person_id
		WHERE u.id = $1`

	role := &domain.Role{}
	person := &domain.Person{}

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id),
		&role.ID,
		&role.Name,
		&person.ID,
		&person.Name,
		&person.LastName,
		&person.DNI,
		&person.IsVerified,
		&person.ContactPhone,
		&person.CreatedAt,
		&person.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	user.Role = role
	user.Person = person

	return user, nil
}
