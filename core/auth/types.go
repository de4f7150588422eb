package auth

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionUser is the derived view of the authenticated user handed to
// handlers and serialized on /auth/status and /auth/login.
type SessionUser struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"full_name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Role     RoleInfo `json:"role"`
}

type RoleInfo struct {
	ID   int64  `json:"role_id"`
	Name string `json:"role_name"`
}
