package domain

import (
	"errors"
	"time"
)

// User is an account identified by a canonical "+84" phone number.
// Enabled flips true only on successful OTP confirmation and is owned
// exclusively by the auth subsystem.
type User struct {
	ID           string
	Phone        string
	PasswordHash string
	Role         Role
	Enabled      bool
	Locked       bool
	FullName     string
	DOB          *time.Time // nil until the profile is filled in
	Gender       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Phone == "" {
		return errors.New("phone is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
