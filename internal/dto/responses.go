package dto

// Envelope is the shape of every response body
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// OK wraps data in a success envelope
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds an error envelope
func Fail(message, code string) Envelope {
	return Envelope{Error: &ErrorBody{Message: message, Code: code}}
}

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

// PersonResponse is the public view of a person
type PersonResponse struct {
	Name         string `json:"name"`
	LastName     string `json:"lastName"`
	DNI          string `json:"dni"`
	ContactPhone string `json:"contactPhone"`
	IsVerified   bool   `json:"isVerified"`
}

// ProfessionalResponse is the public view of a professional profile
type ProfessionalResponse struct {
	Description     *string `json:"description"`
	YearsExperience *int    `json:"yearsExperience"`
}

// ProfileResponse represents a user profile
type ProfileResponse struct {
	ID           string                `json:"id"`
	Username     string                `json:"username"`
	Email        string                `json:"email"`
	AvatarURL    *string               `json:"avatarUrl"`
	Role         string                `json:"role"`
	IsOAuth      bool                  `json:"isOAuth"`
	CreatedAt    string                `json:"createdAt"`
	Person       PersonResponse        `json:"person"`
	Professional *ProfessionalResponse `json:"professional,omitempty"`
}
