package user

import "time"

const (
	EventUserRegistered = "UserRegistered"
	EventUserUpdated    = "UserUpdated"
	EventUserDeleted    = "UserDeleted"
	EventUserLoggedIn   = "UserLoggedIn"
	EventUserLoggedOut  = "UserLoggedOut"
)

type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserUpdated struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserDeleted struct {
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type UserLoggedIn struct {
	UserID   string    `json:"user_id"`
	LoggedAt time.Time `json:"logged_at"`
}

type UserLoggedOut struct {
	UserID   string    `json:"user_id"`
	LoggedAt time.Time `json:"logged_at"`
}
