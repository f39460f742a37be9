package models

// ============================================================
// User Model
// ============================================================

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusBlocked  Status = "BLOCKED"
)

// User is keyed by email. ID names the user's storage directory in the
// studio and never changes.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	PasswordHash       string `json:"-"`
	Role               Role   `json:"role"`
	Status             Status `json:"status"`
	MustChangePassword bool   `json:"mustChangePassword"`
	CreatedAt          string `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
