package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	IsActive     bool      `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleAdopter = "adopter"
	RoleShelter = "shelter"
	RoleAdmin   = "admin"
)

// UserResponse returns a consistent JSON-friendly map of user data
func (u *User) UserResponse() map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID,
		"email":    u.Email,
		"name":     u.Name,
		"role":     u.Role,
		"verified": u.Verified,
	}
}
