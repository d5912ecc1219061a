package model

import "time"

// Role is the closed set of user roles recognised by the platform.
// Values match the `users.role` column. Using a named type instead of
// free strings keeps role checks exhaustive at the call sites.
type Role string

const (
	RoleStudent Role = "STUDENT" // regular campus user, may register and check in
	RoleStaff   Role = "STAFF"   // event staff, may additionally read analytics
	RoleAdmin   Role = "ADMIN"   // full administrative access
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// CanViewAnalytics reports whether the role may read the reporting view.
func (r Role) CanViewAnalytics() bool {
	return r == RoleStaff || r == RoleAdmin
}

// User represents a row in the `users` table. Accounts are created by an
// external onboarding process; this service only ever reads them. The
// admission core cares about ID and Role, the profile fields exist for
// listings and analytics.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name.
//  Email      – unique email address.
//  Role       – one of STUDENT, STAFF, ADMIN.
//  StudentID  – campus student number (nullable, students only).
//  Department – department name (nullable).
//  Year       – study year (nullable).
//  Phone      – contact number (nullable).
//  CreatedAt  – timestamp of creation.
type User struct {
	ID         int64     // users.id
	Name       string    // users.name
	Email      string    // users.email
	Role       Role      // users.role
	StudentID  *string   // users.student_id (nullable)
	Department *string   // users.department (nullable)
	Year       *int      // users.year (nullable)
	Phone      *string   // users.phone (nullable)
	CreatedAt  time.Time // users.created_at
}
