package model

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"` // government / local_authority / contractor / public
	Organization string    `json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}
