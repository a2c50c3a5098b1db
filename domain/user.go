// Package domain contains the core concepts of the chat system.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

// DefaultStatus is the presence label assigned to freshly created users.
const DefaultStatus = "Available"

// User is the read model of an account. Credential material never appears
// here; password hashes live only in the repository layer.
type User struct {
	ID        string
	Email     string
	FullName  string
	Status    string
	Bio       string
	AvatarRef string
	CreatedAt time.Time
}

// UserPatch carries a partial profile update. Empty fields are ignored.
type UserPatch struct {
	FullName  string
	Status    string
	Bio       string
	AvatarRef string
}

// Apply merges the non-empty fields of the patch over the user.
func (u User) Apply(p UserPatch) User {
	if p.FullName != "" {
		u.FullName = p.FullName
	}
	if p.Status != "" {
		u.Status = p.Status
	}
	if p.Bio != "" {
		u.Bio = p.Bio
	}
	if p.AvatarRef != "" {
		u.AvatarRef = p.AvatarRef
	}
	return u
}
