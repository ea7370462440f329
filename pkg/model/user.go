package model

import "time"

// Role is the closed set of caller capabilities.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleDoctor:
		return RoleDoctor, true
	case RolePatient:
		return RolePatient, true
	}
	return "", false
}

// Caller is the authenticated identity threaded explicitly into every
// authorization decision. SubjectID is the directory record id of the
// doctor or patient the token was issued for (empty for admins).
type Caller struct {
	SubjectID string
	Email     string
	Role      Role
}

type Doctor struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	Specialization string    `json:"specialization,omitempty" bson:"specialization,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

type Patient struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
