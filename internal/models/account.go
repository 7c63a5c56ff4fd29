package models

import "time"

// Default values applied to freshly activated accounts.
const (
	DefaultRole = "user"
)

// Avatar references an uploaded profile image.
type Avatar struct {
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url"       bson:"url"`
}

// CourseRef is an enrolled course.
type CourseRef struct {
	CourseID string `json:"courseId" bson:"courseId"`
}

// Account is a single user account in the credential store.
type Account struct {
	ID         string      `json:"_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"-"` // bcrypt hash, only loaded for credential checks
	Avatar     *Avatar     `json:"avatar,omitempty"`
	Role       string      `json:"role"`
	IsVerified bool        `json:"isVerified"`
	Courses    []CourseRef `json:"courses"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// RegisterRequest is the JSON body for POST /api/v1/registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ActivateRequest is the JSON body for POST /api/v1/activate-user.
type ActivateRequest struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activation_code"`
}

// LoginRequest is the JSON body for POST /api/v1/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
