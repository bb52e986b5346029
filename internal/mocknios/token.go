package mocknios

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issueToken signs an HS256 token for the user, the way the platform
// hands out bearer credentials on user_login.
func (s *Server) issueToken(u *User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verifyToken validates a bearer token and resolves the account it was
// issued to.
func (s *Server) verifyToken(token string) (*User, bool) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, false
	}
	email, _ := claims["email"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	return u, ok
}
