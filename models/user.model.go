package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ErrNoCredential is returned when a user would be stored without any way to sign in.
var ErrNoCredential = errors.New("user must have a password or a federated identity")

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	GoogleID     string             `bson:"google_id,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"` // "user" or "admin"
	Phone        string             `bson:"phone" json:"phone"`
	Address      string             `bson:"address" json:"address"`
	City         string             `bson:"city" json:"city"`
	Country      string             `bson:"country" json:"country"`
	OTPHash      string             `bson:"otp_hash,omitempty" json:"-"`
	OTPExpiresAt *time.Time         `bson:"otp_expires_at,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Profile holds the contact fields a user may edit on their own account.
type Profile struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	Country string `bson:"country" json:"country"`
}

// SessionUser is the identity projection carried inside a session token.
// It never contains the password hash or OTP state.
type SessionUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// NormalizeEmail case-folds and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the two known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u *User) IsFederated() bool {
	return u.GoogleID != ""
}

// CanAuthenticate reports whether the user has at least one credential.
func (u *User) CanAuthenticate() bool {
	return u.HasPassword() || u.IsFederated()
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasChallenge reports whether a password reset code is pending.
func (u *User) HasChallenge() bool {
	return u.OTPHash != "" && u.OTPExpiresAt != nil
}

func (u *User) ApplyProfile(p Profile) {
	u.Name = p.Name
	u.Phone = p.Phone
	u.Address = p.Address
	u.City = p.City
	u.Country = p.Country
}

// Session projects the user into the fields carried by a session token.
func (u *User) Session() SessionUser {
	return SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Phone:   u.Phone,
		Address: u.Address,
		City:    u.City,
		Country: u.Country,
	}
}

func (s SessionUser) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// ObjectID parses the projected id back into a document id.
func (s SessionUser) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(s.ID)
}
