package model

import "time"

type Contact struct {
	ID        int64      `db:"ID" json:"id"`
	CreatedAt time.Time  `db:"CreatedAt" json:"created_at"`
	UpdatedAt *time.Time `db:"UpdatedAt" json:"-"`
	FirstName string     `db:"FirstName" json:"first_name"`
	LastName  string     `db:"LastName" json:"last_name"`
	Email     string     `db:"Email" json:"email"`
	Phone     string     `db:"Phone" json:"phone"`
	Birthday  Date       `db:"Birthday" json:"birthday"`
	Notes     *string    `db:"Notes" json:"notes,omitempty"`
	UserID    int64      `db:"UserID" json:"-"`
}

type CreateContactParams struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Birthday  Date    `json:"birthday"`
	Notes     *string `json:"notes"`
}

// UpdateContactParams carries a partial update; nil fields are left untouched.
type UpdateContactParams struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Birthday  *Date   `json:"birthday"`
	Notes     *string `json:"notes"`
}

type ContactFilter struct {
	Name  string
	Email string
}
