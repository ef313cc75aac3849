package user

import (
	"errors"
	"regexp"
	"strings"
)

const AggregateType = "User"

// Storage keys.
const (
	UsersKey       = "allUsers"
	CurrentUserKey = "currentUser"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrInvalidUsername    = errors.New("username is required")
	ErrInvalidPassword    = errors.New("password is required")
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrInvalidRole        = errors.New("role must be user or admin")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User is a registered account. Password holds whatever the configured
// hasher produced: the password itself in plaintext mode, a bcrypt hash
// otherwise.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Validate reports records that cannot be used as an account.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(u.Username) == "" {
		return ErrInvalidUsername
	}
	return nil
}

// Public returns a copy without the password, for output.
func (u User) Public() User {
	u.Password = ""
	return u
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

func validRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}
