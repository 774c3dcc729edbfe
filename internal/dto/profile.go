package dto

// UpdateProfileRequest replaces the identity profile of the caller's role.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}
