package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Bio          string    `json:"bio"`
	Stack        []string  `json:"stack"`
	Image        string    `json:"image"`
	LocationLat  float64   `json:"location_lat"`
	LocationLng  float64   `json:"location_lng"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfilePatch carries a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name  *string
	Role  *string
	Bio   *string
	Stack []string
	Image *string
}

func (p ProfilePatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Stack != nil {
		u.Stack = append([]string(nil), p.Stack...)
	}
	if p.Image != nil {
		u.Image = *p.Image
	}
	return u
}
