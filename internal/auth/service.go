package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inamate/orbitcam/internal/typeid"
)

// Anonymous is the subject of every request when authentication is disabled.
const Anonymous = "anonymous"

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongSession = errors.New("token does not grant this session")
)

type Service struct {
	jwtSecret []byte
	disabled  bool
	now       func() time.Time
}

func NewService(jwtSecret string, disabled bool) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		disabled:  disabled,
		now:       time.Now,
	}
}

// Disabled reports whether tokens are ignored.
func (s *Service) Disabled() bool { return s.disabled }

type Session struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewSession allocates a session id and a token bound to it.
func (s *Service) NewSession() (*Session, error) {
	id := typeid.NewSessionID()
	token, exp, err := s.IssueToken(id)
	if err != nil {
		return nil, err
	}
	return &Session{SessionID: id, Token: token, ExpiresAt: exp}, nil
}

// IssueToken signs an HS256 token whose subject is sessionID.
func (s *Service) IssueToken(sessionID string) (string, time.Time, error) {
	if err := typeid.Validate(sessionID, typeid.PrefixSession); err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	now := s.now()
	exp := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken returns the session id a token was issued for.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Authorize checks that token grants access to sessionID. With
// authentication disabled every session is open.
func (s *Service) Authorize(token, sessionID string) (string, error) {
	if s.disabled {
		return Anonymous, nil
	}
	subject, err := s.ValidateToken(token)
	if err != nil {
		return "", err
	}
	if subject != sessionID {
		return "", ErrWrongSession
	}
	return subject, nil
}
