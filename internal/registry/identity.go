// Package registry holds the durable user records (identities) and the
// credential verifier that checks login attempts against them.
package registry

import "time"

// Role is the coarse authorization level attached to an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the durable user record. The id is immutable; the email is
// unique case-insensitively; name, avatar, and role are mutable.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch enumerates the optional identity fields a partial update may touch.
// Nil fields are left unchanged. The enumeration is deliberate: updates map
// to fixed parameterized statements, never to SQL assembled at runtime.
type Patch struct {
	Name      *string
	AvatarURL *string
	Role      *Role
}
