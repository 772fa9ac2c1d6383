package models

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MessageResponse is a success body carrying a human-readable message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse wraps a list or record returned by the dashboard API
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// LoginRequest is the body of POST /api/admin/login
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token for clients that cannot keep cookies
type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}
