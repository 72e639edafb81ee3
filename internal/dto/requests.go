package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name            string  `json:"name" binding:"required,notblank,max=100"`
	LastName        string  `json:"lastName" binding:"required,notblank,max=100"`
	DNI             string  `json:"dni" binding:"required,dni"`
	ContactPhone    string  `json:"contactPhone" binding:"required,notblank,max=30"`
	Username        string  `json:"username" binding:"required,notblank,min=3,max=50"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=6,max=72"`
	ConfirmPassword string  `json:"confirmPassword" binding:"required"`
	Description     *string `json:"description" binding:"omitempty,max=1000"`
	YearsExperience *int    `json:"yearsExperience" binding:"omitempty,min=0,max=80"`
}

// HasProfessionalProfile reports whether any optional bio field was given
func (r *RegisterRequest) HasProfessionalProfile() bool {
	return r.Description != nil || r.YearsExperience != nil
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
