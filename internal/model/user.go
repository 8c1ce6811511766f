package model

import "strings"

// User represents an account on the todo API
type User struct {
	Key      string `json:"key"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Registration is the payload for creating an account
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

// Validate checks the registration form
func (r Registration) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(r.Username) == "" {
		errs.Add("username", "username is required")
	}
	if !strings.Contains(r.Email, "@") {
		errs.Add("email", "email is invalid")
	}
	if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}
	return errs.Err()
}

// UserUpdate is the payload for PUT /users/{key}
type UserUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// PasswordChange is the payload for PUT /users/{key}/password
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate checks the password form
func (p PasswordChange) Validate() error {
	var errs ValidationErrors
	if p.CurrentPassword == "" {
		errs.Add("current_password", "current password is required")
	}
	if len(p.NewPassword) < 8 {
		errs.Add("new_password", "password must be at least 8 characters")
	}
	return errs.Err()
}

// TokenResponse is the body returned by POST /token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	UserKey     string `json:"user_key,omitempty"`
}
