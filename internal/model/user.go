package model

import "time"

// User is an account that owns flashcards and generations.
type User struct {
	ID        int64
	Email     string
	AuthHash  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialsRequest is the body of both register and login requests.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a session token and the user it was issued for.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the user as exposed by the API (no credential fields).
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
