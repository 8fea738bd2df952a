package auth

// RegisterRequest es el body de POST /register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// EmailRequest es el body de /resend-verification y /forgot-password.
type EmailRequest struct {
	Email string `json:"email"`
}
