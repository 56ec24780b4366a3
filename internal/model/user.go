package model

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type CreateUserParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginParams struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

type User struct {
	ID        int64      `db:"ID" json:"id"`
	CreatedAt time.Time  `db:"CreatedAt" json:"created_at"`
	UpdatedAt *time.Time `db:"UpdatedAt" json:"-"`
	Username  string     `db:"Username" json:"username"`
	Email     string     `db:"Email" json:"email"`
	Password  string     `db:"Password" json:"-"`
	IsActive  bool       `db:"IsActive" json:"is_active"`
	Confirmed bool       `db:"Confirmed" json:"confirmed"`
	Role      UserRole   `db:"Role" json:"role"`
	AvatarURL *string    `db:"AvatarURL" json:"avatar_url,omitempty"`
}
