package dto

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse keeps the {id, name} shape older clients read and adds the token.
type AuthResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token"`
	ExpiresInSec int64  `json:"expires_in_sec"`
}
