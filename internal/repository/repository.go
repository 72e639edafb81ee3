package repository

import (
	"github.com/tembiapo/tembiapo-backend/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User         UserRepository
	Role         RoleRepository
	Professional ProfessionalRepository
	Token        TokenRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Role:         NewRoleRepository(db),
		Professional: NewProfessionalRepository(db),
		Token:        NewTokenRepository(db),
	}
}
