package user

import "time"

type User struct {
	ID        int       `json:"userId"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createAt"`
}

// sanitizeUser drops the password hash before a user leaves the service.
func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
