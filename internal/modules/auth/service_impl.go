package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/georgemunganga/epharmacy-backend/internal/modules/user"
)

// ErrInvalidToken is returned for malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
	Phone string    `json:"phone,omitempty"`
	jwt.StandardClaims
}

type service struct {
	users  user.Service
	jwtKey []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a new auth service.
func NewService(users user.Service, secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{users: users, jwtKey: []byte(secret), ttl: ttl, now: time.Now}
}

// Login never writes the persisted session; API callers carry theirs in the token.
func (s *service) Login(ctx context.Context, email, password string) (string, user.Session, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return "", user.Session{}, err
	}
	sess := user.SessionOf(*u)
	token, err := s.Issue(sess)
	if err != nil {
		return "", user.Session{}, err
	}
	return token, sess, nil
}

func (s *service) Issue(sess user.Session) (string, error) {
	if !sess.SignedIn() {
		return "", fmt.Errorf("cannot issue a token for a guest")
	}
	now := s.now()
	c := &claims{
		Name:  sess.Name,
		Email: sess.Email,
		Role:  sess.Role,
		Phone: sess.Phone,
		StandardClaims: jwt.StandardClaims{
			Subject:   sess.Email,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (s *service) Parse(tokenString string) (user.Session, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return user.Session{}, ErrInvalidToken
	}
	sess := user.Session{Name: c.Name, Email: c.Email, Role: c.Role, Phone: c.Phone}
	if !sess.SignedIn() || !sess.Role.Valid() {
		return user.Session{}, ErrInvalidToken
	}
	return sess, nil
}
