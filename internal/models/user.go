package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account profile owned by the authentication layer. It is read
// here to pre-fill member rows and to address notifications.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Mobile       string    `json:"mobile"`
	Organization string    `json:"organization"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Fields() MemberFields {
	return MemberFields{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Mobile:       u.Mobile,
		Organization: u.Organization,
		Location:     u.Location,
	}
}

func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
