package model

// View is a console location a caller is directed to after an auth action.
type View string

const (
	ViewSignup    View = "/signup"
	ViewLogin     View = "/login"
	ViewDashboard View = "/dashboard"
	ViewLeads     View = "/leads"
	ViewSettings  View = "/settings"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the signup request body.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the account returned alongside a session token.
type User struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}
