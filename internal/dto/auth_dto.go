package dto

// RegisterRequest is the payload of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Username string `json:"username" validate:"omitempty,max=100"`
}

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionUser describes the signed-in account.
type SessionUser struct {
	UserID   uint   `json:"user_id"`
	PersonID uint   `json:"person_id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

// RoleUpdateRequest is the payload of PUT /api/people/:id/role.
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required"`
}

// RoleUpdateResponse confirms a role change.
type RoleUpdateResponse struct {
	PersonID uint   `json:"person_id"`
	Role     string `json:"role"`
}

// CalendarLinkResponse carries a subscription URL for a person's expiry feed.
type CalendarLinkResponse struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
