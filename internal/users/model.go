package users

import "time"

// User is a person who signed in through Google. Guests never get a row.
type User struct {
	ID         string
	Email      string
	FullName   string
	GivenName  string
	FamilyName string
	PictureURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
