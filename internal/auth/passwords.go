package auth

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const maxPasswordBytes = 72

// ValidateSignup returns one message per rule the request breaks.
func ValidateSignup(req SignupRequest) []string {
	var problems []string

	name := strings.TrimSpace(req.Name)
	switch n := utf8.RuneCountInString(name); {
	case n < 1:
		problems = append(problems, "Name must have at least 1 character")
	case n > 50:
		problems = append(problems, "Name cannot be longer than 50 characters")
	}

	if !validEmail(req.Email) {
		problems = append(problems, "Enter a valid email")
	}

	if utf8.RuneCountInString(req.Password) < 4 {
		problems = append(problems, "Password must have at least 4 characters")
	}
	// bcrypt only hashes the first 72 bytes and refuses anything longer
	if len(req.Password) > maxPasswordBytes {
		problems = append(problems, "Password cannot be longer than 72 bytes")
	}
	if !strings.ContainsFunc(req.Password, unicode.IsUpper) {
		problems = append(problems, "Password needs an uppercase letter")
	}
	if !strings.ContainsFunc(req.Password, unicode.IsDigit) {
		problems = append(problems, "Password needs a number")
	}

	return problems
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// HashPassword hashes a password with bcrypt's default cost
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports ErrInvalidCredentials when the user has no password
// or it does not match
func CheckPassword(user *User, password string) error {
	if user == nil || user.PasswordHash == nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
