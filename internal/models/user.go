package models

import (
	"encoding/json"
	"time"
)

// Roles a user account may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultPhotoURL is assigned when a user signs up without a photo.
const DefaultPhotoURL = "https://www.gravatar.com/avatar/?d=mp"

// User represents a user account in the system.
type User struct {
	ID           string     `json:"id" db:"id"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose this to the client
	Role         string     `json:"role" db:"role"`
	Age          *int       `json:"age,omitempty" db:"age"`
	Gender       string     `json:"gender,omitempty" db:"gender"`
	About        string     `json:"about,omitempty" db:"about"`
	PhotoURL     string     `json:"photoUrl,omitempty" db:"photo_url"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	// JSON string field for DB storage
	SkillsJSON string `json:"-" db:"skills_json"`

	Skills []string `json:"skills,omitempty" db:"-"`
}

// Public returns a copy of the user with the password hash cleared.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// PrepareForSave marshals slice fields into their JSON strings for DB storage.
func (u *User) PrepareForSave() {
	if u.Skills == nil {
		u.SkillsJSON = "[]"
		return
	}
	skillsBytes, _ := json.Marshal(u.Skills)
	u.SkillsJSON = string(skillsBytes)
}

// PrepareForAPI unmarshals the JSON string fields for API responses.
func (u *User) PrepareForAPI() {
	if u.SkillsJSON != "" {
		json.Unmarshal([]byte(u.SkillsJSON), &u.Skills)
	}
}

// OwnerSummary is the denormalized view of a product's creator.
type OwnerSummary struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Email     string `json:"email" db:"email"`
}

// Summary projects the user onto the fields shown next to the products they own.
func (u User) Summary() OwnerSummary {
	return OwnerSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
