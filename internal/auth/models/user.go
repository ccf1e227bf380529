package models

// ============================================================
// User Model
// ============================================================

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at"`
}

// ============================================================
// Session Model
// ============================================================

// Session is an authenticated identity as handed out by sign-in.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
